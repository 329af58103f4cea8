package service

import (
	"errors"
	"fmt"

	"digistore/internal/domain/order/gateway"
	"digistore/internal/domain/order/model"
	"digistore/internal/pkg/config"
	"digistore/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// loadPayableOrder 加载订单并校验归属与可支付状态
func (s *orderService) loadPayableOrder(userID, orderID string) (*model.Order, error) {
	order, err := s.repo.GetByIDWithItems(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ExpressOrderError{Status: 404, Message: "Order not found"}
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, &ExpressOrderError{Status: 404, Message: "Order not found"}
	}
	if order.Status != model.StatusPending {
		return nil, &ExpressOrderError{Status: 409, Message: "Order is no longer payable"}
	}
	return order, nil
}

// CreateCheckoutSession 创建托管支付会话
// 重复调用不会产生第二个活跃会话：已有会话仍处于 open 状态时直接复用
func (s *orderService) CreateCheckoutSession(userID, orderID string) (*model.Order, string, error) {
	order, err := s.loadPayableOrder(userID, orderID)
	if err != nil {
		return nil, "", err
	}

	// 复用检查以 Stripe 实时状态为准
	if order.StripeCheckoutSessionID != "" {
		detail, err := s.gateway.GetCheckoutSession(order.StripeCheckoutSessionID)
		if err == nil && detail.Status == gateway.SessionStatusOpen {
			s.collector.RecordCheckoutSession("reused")
			return order, detail.URL, nil
		}
		// 会话已过期或查询失败：创建新会话
	}

	minimum := config.GlobalConfig.Stripe.MinimumAmount
	if order.TotalAmount < minimum {
		return nil, "", &ExpressOrderError{
			Status:  422,
			Message: fmt.Sprintf("Order total %.2f is below the minimum payable amount %.2f", order.TotalAmount, minimum),
		}
	}

	// SKU -> Stripe Price 静态映射；缺失映射是硬配置错误，不能静默跳过
	lines := make([]gateway.SessionLine, 0, len(order.Items))
	for _, item := range order.Items {
		priceID, ok := config.GlobalConfig.Stripe.Prices[item.ProductSKU]
		if !ok {
			s.collector.RecordCheckoutSession("failed")
			return nil, "", &PriceNotConfiguredError{SKU: item.ProductSKU}
		}
		lines = append(lines, gateway.SessionLine{PriceID: priceID, Quantity: int64(item.Quantity)})
	}

	sess, err := s.gateway.CreateCheckoutSession(&gateway.CheckoutSessionInput{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		Currency:      order.Currency,
		Lines:         lines,
		DiscountCents: toCents(order.DiscountAmount),
	})
	if err != nil {
		s.collector.RecordCheckoutSession("failed")
		return nil, "", err
	}

	// 会话已在 Stripe 侧存在，本地持久化失败只记日志，不重试不回滚
	if err := s.repo.UpdatePaymentInfo(order.ID, map[string]interface{}{
		"stripe_checkout_session_id": sess.ID,
	}); err != nil {
		logger.Log.Warn("Failed to persist checkout session id",
			zap.String("order_id", order.ID),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
	order.StripeCheckoutSessionID = sess.ID

	s.collector.RecordCheckoutSession("created")
	return order, sess.URL, nil
}

// CreatePaymentIntent 创建支付意图（钱包/内嵌支付 UI）
// 已有意图仍处于确认前状态时复用；状态以 Stripe 实时查询为准
func (s *orderService) CreatePaymentIntent(userID, orderID string) (*model.Order, *gateway.PaymentIntent, error) {
	order, err := s.loadPayableOrder(userID, orderID)
	if err != nil {
		return nil, nil, err
	}

	if order.StripePaymentIntentID != "" {
		pi, err := s.gateway.GetPaymentIntent(order.StripePaymentIntentID)
		if err == nil && gateway.IntentReusable(pi.Status) {
			s.collector.RecordPaymentIntent("reused")
			return order, pi, nil
		}
	}

	minimum := config.GlobalConfig.Stripe.MinimumAmount
	if order.TotalAmount < minimum {
		return nil, nil, &ExpressOrderError{
			Status:  422,
			Message: fmt.Sprintf("Order total %.2f is below the minimum payable amount %.2f", order.TotalAmount, minimum),
		}
	}

	pi, err := s.gateway.CreatePaymentIntent(toCents(order.TotalAmount), order.Currency, order.ID, order.OrderNumber)
	if err != nil {
		s.collector.RecordPaymentIntent("failed")
		return nil, nil, err
	}

	// 意图引用丢失会导致对账查不到订单，持久化失败必须上抛
	if err := s.repo.UpdatePaymentInfo(order.ID, map[string]interface{}{
		"stripe_payment_intent_id": pi.ID,
	}); err != nil {
		return nil, nil, err
	}
	order.StripePaymentIntentID = pi.ID

	s.collector.RecordPaymentIntent("created")
	return order, pi, nil
}
