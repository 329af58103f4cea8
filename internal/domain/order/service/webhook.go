package service

import (
	"context"
	"errors"
	"time"

	"digistore/internal/domain/order/model"
	"digistore/internal/pkg/mailer"
	"digistore/internal/pkg/worker"
	"digistore/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// webhookDedupTTL 事件去重键的保留时长
const webhookDedupTTL = 24 * time.Hour

// HandlePaymentSucceeded 处理支付成功事件，对账并完成订单
// 幂等：同一事件重放、同一订单的重复事件都不会重复发货或重复发信
func (s *orderService) HandlePaymentSucceeded(eventID, paymentRef string) error {
	// Redis 事件去重是尽力而为的优化；Redis 不可用时退化为
	// 依赖下方的订单状态检查保证幂等
	if s.rdb != nil && eventID != "" {
		ok, err := s.rdb.SetNX(context.Background(), "webhook:event:"+eventID, 1, webhookDedupTTL).Result()
		if err != nil {
			logger.Log.Warn("Webhook dedup check failed, continuing",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
		} else if !ok {
			logger.Log.Info("Duplicate webhook event skipped", zap.String("event_id", eventID))
			s.collector.RecordWebhookEvent("duplicate")
			return nil
		}
	}

	order, err := s.repo.GetByPaymentRef(paymentRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未知引用：可能是其他环境的事件或订单已被清理
			// 返回成功避免 Stripe 无限重试
			logger.Log.Warn("Webhook references unknown order",
				zap.String("event_id", eventID),
				zap.String("payment_ref", paymentRef),
			)
			s.collector.RecordWebhookEvent("unknown_order")
			return nil
		}
		s.collector.RecordWebhookEvent("failed")
		return err
	}

	if order.Status == model.StatusCompleted {
		s.collector.RecordWebhookEvent("duplicate")
		return nil
	}

	receipt, extra := s.buildReceipt(order)

	// pending 订单先推进到 processing 再完成
	if order.Status == model.StatusPending {
		if err := s.repo.TransitionStatus(order.ID, model.StatusProcessing, nil); err != nil {
			s.collector.RecordWebhookEvent("failed")
			return err
		}
	}

	extra["paid_at"] = time.Now()
	if err := s.repo.TransitionStatus(order.ID, model.StatusCompleted, extra); err != nil {
		s.collector.RecordWebhookEvent("failed")
		return err
	}

	// 授予商品访问权；失败只记日志，订单已完成不回滚
	for _, item := range order.Items {
		if err := s.catalog.GrantAccess(order.UserID, item.ProductID, order.ID); err != nil {
			logger.Log.Error("Failed to grant product access",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	// 回执邮件尽力投递，队列满或发送失败不影响订单完成
	if s.queue != nil && order.CustomerEmail != "" {
		if !s.queue.Enqueue(worker.EmailTask{To: order.CustomerEmail, Receipt: receipt}) {
			logger.Log.Warn("Receipt email queue full, dropping task",
				zap.String("order_id", order.ID),
			)
		}
	}

	s.audit.LogAction(order.UserID, "order.completed", "order", order.ID, map[string]interface{}{
		"event_id":    eventID,
		"payment_ref": paymentRef,
		"total":       receipt.Total,
	})
	s.collector.RecordWebhookEvent("completed")
	return nil
}

// buildReceipt 构建支付回执
// 优先使用 Stripe 会话明细（权威金额），获取失败或数据不全时
// 回退到本地订单数据；同时返回需要随状态更新写入的支付引用字段
func (s *orderService) buildReceipt(order *model.Order) (*mailer.Receipt, map[string]interface{}) {
	extra := map[string]interface{}{}

	receipt := &mailer.Receipt{
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		Currency:       order.Currency,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		TaxAmount:      order.TaxAmount,
		Total:          order.TotalAmount,
	}
	for _, item := range order.Items {
		receipt.Items = append(receipt.Items, mailer.ReceiptItem{
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}

	if order.StripeCheckoutSessionID == "" {
		return receipt, extra
	}

	detail, err := s.gateway.GetCheckoutSession(order.StripeCheckoutSessionID)
	if err != nil {
		logger.Log.Warn("Failed to fetch checkout session, using local order data for receipt",
			zap.String("order_id", order.ID),
			zap.String("session_id", order.StripeCheckoutSessionID),
			zap.Error(err),
		)
		return receipt, extra
	}

	if detail.PaymentIntentID != "" && order.StripePaymentIntentID == "" {
		extra["stripe_payment_intent_id"] = detail.PaymentIntentID
	}

	// 会话数据不全（如明细未展开）时不混用，整体回退本地数据
	if detail.AmountTotal <= 0 || len(detail.Lines) == 0 {
		logger.Log.Warn("Checkout session detail incomplete, using local order data for receipt",
			zap.String("order_id", order.ID),
			zap.String("session_id", order.StripeCheckoutSessionID),
		)
		return receipt, extra
	}

	receipt.Subtotal = fromCents(detail.AmountSubtotal)
	receipt.DiscountAmount = fromCents(detail.AmountDiscount)
	receipt.TaxAmount = fromCents(detail.AmountTax)
	receipt.Total = fromCents(detail.AmountTotal)
	receipt.Items = receipt.Items[:0]
	for _, line := range detail.Lines {
		receipt.Items = append(receipt.Items, mailer.ReceiptItem{
			Name:       line.Description,
			Quantity:   int(line.Quantity),
			UnitPrice:  fromCents(line.UnitAmount),
			TotalPrice: fromCents(line.AmountTotal),
		})
	}
	return receipt, extra
}
