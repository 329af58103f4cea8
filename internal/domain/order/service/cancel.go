package service

import (
	"errors"
	"time"

	"digistore/internal/domain/order/model"
	"digistore/internal/pkg/mailer"
	"digistore/internal/pkg/worker"
	"digistore/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CancelOrder 取消订单
// pending 直接取消；processing 先尝试退款，成功转 refunded，
// 失败则仍取消并标记 needs_review；completed 走退款路径，
// 退款失败时订单状态保持不变并上抛错误；终态订单拒绝
func (s *orderService) CancelOrder(userID, orderID string) (*model.Order, *RefundSummary, error) {
	order, err := s.repo.GetByIDWithItems(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &ExpressOrderError{Status: 404, Message: "Order not found"}
		}
		return nil, nil, err
	}
	if order.UserID != userID {
		return nil, nil, &ExpressOrderError{Status: 404, Message: "Order not found"}
	}

	switch order.Status {
	case model.StatusPending:
		return s.cancelPending(order)
	case model.StatusProcessing:
		return s.cancelProcessing(order)
	case model.StatusCompleted:
		return s.refundCompleted(order)
	default:
		return nil, nil, &model.InvalidTransitionError{From: order.Status, To: model.StatusCancelled}
	}
}

// cancelPending 未付款订单直接取消，无需退款
func (s *orderService) cancelPending(order *model.Order) (*model.Order, *RefundSummary, error) {
	from := order.Status
	if err := s.repo.TransitionStatus(order.ID, model.StatusCancelled, nil); err != nil {
		return nil, nil, err
	}
	order.Status = model.StatusCancelled

	s.audit.LogAction(order.UserID, "order.cancelled", "order", order.ID, map[string]interface{}{
		"from": string(from),
	})
	return order, nil, nil
}

// cancelProcessing 付款进行中的订单先尝试退款
// 退款成功转 refunded；退款失败不阻塞取消（此时扣款未必落定），
// 订单转 cancelled 并标记 needs_review 交人工对账
func (s *orderService) cancelProcessing(order *model.Order) (*model.Order, *RefundSummary, error) {
	intentID := s.resolveRefundIntent(order)
	if intentID == "" {
		if order.StripeCheckoutSessionID == "" {
			// 尚未产生任何支付引用，等同于未付款取消
			return s.cancelPending(order)
		}
		// 有托管会话但反查不到支付意图，扣款状态不明，交人工对账
		return s.cancelForReview(order)
	}

	refund, err := s.gateway.CreateRefund(intentID)
	if err != nil {
		logger.Log.Error("Refund during cancellation failed, flagging order for review",
			zap.String("order_id", order.ID),
			zap.String("payment_intent_id", intentID),
			zap.Error(err),
		)
		s.collector.RecordRefund("failed")
		return s.cancelForReview(order)
	}

	s.collector.RecordRefund("succeeded")
	if err := s.repo.TransitionStatus(order.ID, model.StatusRefunded, map[string]interface{}{
		"refund_id":   refund.ID,
		"refunded_at": time.Now(),
	}); err != nil {
		return nil, nil, err
	}
	order.Status = model.StatusRefunded
	order.RefundID = refund.ID

	summary := &RefundSummary{RefundID: refund.ID, Amount: order.TotalAmount, Status: refund.Status}
	s.notifyRefund(order, summary)
	s.audit.LogAction(order.UserID, "order.refunded", "order", order.ID, map[string]interface{}{
		"from":      string(model.StatusProcessing),
		"refund_id": refund.ID,
		"amount":    order.TotalAmount,
	})
	return order, summary, nil
}

// cancelForReview 取消订单并标记 needs_review，交人工对账
func (s *orderService) cancelForReview(order *model.Order) (*model.Order, *RefundSummary, error) {
	if err := s.repo.TransitionStatus(order.ID, model.StatusCancelled, map[string]interface{}{
		"needs_review": true,
	}); err != nil {
		return nil, nil, err
	}
	order.Status = model.StatusCancelled
	order.NeedsReview = true

	s.audit.LogAction(order.UserID, "order.cancelled", "order", order.ID, map[string]interface{}{
		"from":         string(model.StatusProcessing),
		"refunded":     false,
		"needs_review": true,
	})
	return order, nil, nil
}

// resolveRefundIntent 退款所需的支付意图引用
// 走本地回退对账完成的订单可能只记录了托管会话，此时向 Stripe 反查并补写
func (s *orderService) resolveRefundIntent(order *model.Order) string {
	if order.StripePaymentIntentID != "" {
		return order.StripePaymentIntentID
	}
	if order.StripeCheckoutSessionID == "" {
		return ""
	}

	detail, err := s.gateway.GetCheckoutSession(order.StripeCheckoutSessionID)
	if err != nil {
		logger.Log.Warn("Failed to resolve payment intent from checkout session",
			zap.String("order_id", order.ID),
			zap.String("checkout_session_id", order.StripeCheckoutSessionID),
			zap.Error(err),
		)
		return ""
	}
	if detail.PaymentIntentID == "" {
		return ""
	}
	if err := s.repo.UpdatePaymentInfo(order.ID, map[string]interface{}{
		"stripe_payment_intent_id": detail.PaymentIntentID,
	}); err != nil {
		logger.Log.Warn("Failed to persist resolved payment intent id",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
	order.StripePaymentIntentID = detail.PaymentIntentID
	return detail.PaymentIntentID
}

// refundCompleted 已完成订单的退款：退款成功后才变更状态
func (s *orderService) refundCompleted(order *model.Order) (*model.Order, *RefundSummary, error) {
	intentID := s.resolveRefundIntent(order)
	if intentID == "" {
		return nil, nil, &ExpressOrderError{Status: 409, Message: "Order has no refundable payment"}
	}

	refund, err := s.gateway.CreateRefund(intentID)
	if err != nil {
		s.collector.RecordRefund("failed")
		s.audit.LogAction(order.UserID, "order.refund_failed", "order", order.ID, map[string]interface{}{
			"payment_intent_id": intentID,
			"error":             err.Error(),
		})
		return nil, nil, &RefundFailedError{Err: err}
	}
	s.collector.RecordRefund("succeeded")

	if err := s.repo.TransitionStatus(order.ID, model.StatusRefunded, map[string]interface{}{
		"refund_id":   refund.ID,
		"refunded_at": time.Now(),
	}); err != nil {
		return nil, nil, err
	}
	order.Status = model.StatusRefunded
	order.RefundID = refund.ID

	summary := &RefundSummary{RefundID: refund.ID, Amount: order.TotalAmount, Status: refund.Status}
	s.notifyRefund(order, summary)
	s.audit.LogAction(order.UserID, "order.refunded", "order", order.ID, map[string]interface{}{
		"refund_id": refund.ID,
		"amount":    order.TotalAmount,
	})
	return order, summary, nil
}

// notifyRefund 退款成功后投递通知邮件，尽力而为
func (s *orderService) notifyRefund(order *model.Order, summary *RefundSummary) {
	if summary == nil || s.queue == nil || order.CustomerEmail == "" {
		return
	}
	notice := &mailer.RefundNotice{
		OrderNumber: order.OrderNumber,
		Currency:    order.Currency,
		Amount:      summary.Amount,
		RefundID:    summary.RefundID,
	}
	if !s.queue.Enqueue(worker.EmailTask{To: order.CustomerEmail, Refund: notice}) {
		logger.Log.Warn("Refund notice email queue full, dropping task",
			zap.String("order_id", order.ID),
		)
	}
}
