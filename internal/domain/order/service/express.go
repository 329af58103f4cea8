package service

import (
	"errors"
	"fmt"
	"time"

	catalogService "digistore/internal/domain/catalog/service"
	couponModel "digistore/internal/domain/coupon/model"
	"digistore/internal/domain/order/model"
	"digistore/internal/domain/order/pricing"
	"digistore/internal/pkg/config"

	"gorm.io/gorm"
)

// CreateExpressOrder 快捷下单：单商品、数量固定为 1
// 携带幂等键时，窗口内同用户同商品的最近 pending 订单会被复用，
// 以容忍客户端重试（双击、网络抖动），不产生重复订单
func (s *orderService) CreateExpressOrder(userID, productID, couponCode, idempotencyKey string) (*model.Order, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ExpressOrderError{Status: 404, Message: "User not found"}
		}
		return nil, err
	}

	product, err := s.catalog.GetProduct(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.collector.RecordOrderCreated("rejected")
			return nil, &ExpressOrderError{Status: 404, Message: "Product not found"}
		}
		return nil, err
	}

	// 目录互斥规则（套装/单包）由目录服务裁决
	if err := s.catalog.CheckPurchasable(userID, product); err != nil {
		switch {
		case errors.Is(err, catalogService.ErrNotForSale):
			s.collector.RecordOrderCreated("rejected")
			return nil, &ExpressOrderError{Status: 400, Message: err.Error()}
		case errors.Is(err, catalogService.ErrAlreadyOwned),
			errors.Is(err, catalogService.ErrBundleOwned),
			errors.Is(err, catalogService.ErrAllPackagesOwned):
			s.collector.RecordOrderCreated("rejected")
			return nil, &ExpressOrderError{Status: 409, Message: err.Error()}
		default:
			return nil, err
		}
	}

	// 本目录的套装/单包数量恒为 1
	item := model.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		ProductSKU:  product.SKU,
		UnitPrice:   product.Price,
		Quantity:    1,
		TotalPrice:  product.Price,
	}
	items := []model.OrderItem{item}
	subtotal := pricing.CalculateSubtotal(items)

	var coupon *couponModel.Coupon
	var couponID *string
	if couponCode != "" {
		result, err := s.coupons.Validate(couponCode, subtotal, []string{productID})
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			s.collector.RecordOrderCreated("rejected")
			return nil, &ExpressOrderError{Status: 400, Message: result.Reason}
		}
		coupon = result.Coupon
		couponID = &coupon.ID
	}

	totals := pricing.CalculateOrderTotals(items, coupon)

	minimum := config.GlobalConfig.Stripe.MinimumAmount
	if totals.Total < minimum {
		s.collector.RecordOrderCreated("rejected")
		return nil, &ExpressOrderError{
			Status:  422,
			Message: fmt.Sprintf("Order total %.2f is below the minimum payable amount %.2f", totals.Total, minimum),
		}
	}

	// 幂等复用：有幂等键、无优惠券时才检查；
	// 读取-判断之间的并发窗口是已接受的风险（此时尚未扣款）
	if idempotencyKey != "" && couponCode == "" {
		if reused := s.findReusableOrder(userID, productID); reused != nil {
			s.collector.RecordOrderCreated("reused")
			return reused, nil
		}
	}

	order := &model.Order{
		OrderNumber:    generateOrderNumber(),
		UserID:         userID,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		TotalAmount:    totals.Total,
		Currency:       config.GlobalConfig.Stripe.Currency,
		Status:         model.StatusPending,
		CustomerEmail:  user.Email,
		CustomerName:   user.Name,
		BillingAddress: user.BillingAddress,
		CouponID:       couponID,
		Items:          items,
	}

	if err := s.repo.CreateWithItems(order); err != nil {
		return nil, err
	}

	s.audit.LogAction(userID, "order.created", "order", order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"product_id":   productID,
		"total":        totals.Total,
	})
	s.collector.RecordOrderCreated("created")

	return order, nil
}

// findReusableOrder 查找可复用的最近 pending 订单：
// 在复用窗口内、恰好一个匹配的订单项、且尚未挂接托管支付会话
func (s *orderService) findReusableOrder(userID, productID string) *model.Order {
	recent, err := s.repo.GetMostRecentPendingForUser(userID)
	if err != nil {
		return nil
	}
	if time.Since(recent.CreatedAt) > expressReuseWindow {
		return nil
	}
	if recent.StripeCheckoutSessionID != "" {
		return nil
	}
	if len(recent.Items) != 1 {
		return nil
	}
	if recent.Items[0].ProductID != productID || recent.Items[0].Quantity != 1 {
		return nil
	}
	return recent
}
