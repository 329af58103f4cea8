package service

import (
	"errors"
	"testing"

	"digistore/internal/domain/order/gateway"
	"digistore/internal/domain/order/model"
	baseModel "digistore/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func cancellableOrder(status model.Status) *model.Order {
	return &model.Order{
		BaseModel:     baseModel.BaseModel{ID: "order-1"},
		OrderNumber:   "ORD20260901000001",
		UserID:        "user-1",
		Status:        status,
		Currency:      "usd",
		TotalAmount:   44.99,
		CustomerEmail: "buyer@example.com",
		Items: []model.OrderItem{
			{ProductID: "prod-1", ProductSKU: "PKG-BASIC", Quantity: 1, UnitPrice: 44.99, TotalPrice: 44.99},
		},
	}
}

func TestCancelOrder_PendingCancelsWithoutRefund(t *testing.T) {
	f := newExpressFixture()
	f.repo.On("GetByIDWithItems", "order-1").Return(cancellableOrder(model.StatusPending), nil)
	f.repo.On("TransitionStatus", "order-1", model.StatusCancelled, mock.Anything).Return(nil)
	f.audit.On("LogAction", "user-1", "order.cancelled", "order", "order-1", mock.Anything).Return()

	order, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.Status)
	assert.Nil(t, summary)
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything)
}

func TestCancelOrder_CompletedRefundsThenMarksRefunded(t *testing.T) {
	f := newExpressFixture()
	order := cancellableOrder(model.StatusCompleted)
	order.StripePaymentIntentID = "pi_test_1"
	f.repo.On("GetByIDWithItems", "order-1").Return(order, nil)
	f.gateway.On("CreateRefund", "pi_test_1").Return(&gateway.Refund{ID: "re_test_1", Status: "succeeded"}, nil)
	f.repo.On("TransitionStatus", "order-1", model.StatusRefunded, mock.MatchedBy(func(extra map[string]interface{}) bool {
		return extra["refund_id"] == "re_test_1"
	})).Return(nil)
	f.queue.On("Enqueue", mock.AnythingOfType("worker.EmailTask")).Return(true)
	f.audit.On("LogAction", "user-1", "order.refunded", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, result.Status)
	assert.Equal(t, "re_test_1", summary.RefundID)
	assert.Equal(t, 44.99, summary.Amount)
	f.repo.AssertExpectations(t)
}

func TestCancelOrder_CompletedWithSessionOnlyResolvesIntentAndRefunds(t *testing.T) {
	f := newExpressFixture()
	order := cancellableOrder(model.StatusCompleted)
	order.StripeCheckoutSessionID = "cs_test_1"
	f.repo.On("GetByIDWithItems", "order-1").Return(order, nil)
	f.gateway.On("GetCheckoutSession", "cs_test_1").Return(&gateway.CheckoutSessionDetail{
		ID:              "cs_test_1",
		Status:          gateway.SessionStatusComplete,
		PaymentIntentID: "pi_resolved_1",
	}, nil)
	f.repo.On("UpdatePaymentInfo", "order-1", mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["stripe_payment_intent_id"] == "pi_resolved_1"
	})).Return(nil)
	f.gateway.On("CreateRefund", "pi_resolved_1").Return(&gateway.Refund{ID: "re_test_3", Status: "succeeded"}, nil)
	f.repo.On("TransitionStatus", "order-1", model.StatusRefunded, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.AnythingOfType("worker.EmailTask")).Return(true)
	f.audit.On("LogAction", "user-1", "order.refunded", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, result.Status)
	assert.Equal(t, "re_test_3", summary.RefundID)
	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestCancelOrder_CompletedWithoutAnyPaymentRefRejected(t *testing.T) {
	f := newExpressFixture()
	f.repo.On("GetByIDWithItems", "order-1").Return(cancellableOrder(model.StatusCompleted), nil)

	order, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.Nil(t, order)
	assert.Nil(t, summary)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 409, expErr.Status)
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything)
}

func TestCancelOrder_ProcessingSessionUnresolvableFlagsForReview(t *testing.T) {
	f := newExpressFixture()
	order := cancellableOrder(model.StatusProcessing)
	order.StripeCheckoutSessionID = "cs_test_1"
	f.repo.On("GetByIDWithItems", "order-1").Return(order, nil)
	f.gateway.On("GetCheckoutSession", "cs_test_1").Return(nil, errors.New("stripe unavailable"))
	f.repo.On("TransitionStatus", "order-1", model.StatusCancelled, mock.MatchedBy(func(extra map[string]interface{}) bool {
		return extra["needs_review"] == true
	})).Return(nil)
	f.audit.On("LogAction", "user-1", "order.cancelled", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, result.Status)
	assert.True(t, result.NeedsReview)
	assert.Nil(t, summary)
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything)
}

func TestCancelOrder_RefundFailureOnCompletedLeavesStatusUnchanged(t *testing.T) {
	f := newExpressFixture()
	order := cancellableOrder(model.StatusCompleted)
	order.StripePaymentIntentID = "pi_test_1"
	f.repo.On("GetByIDWithItems", "order-1").Return(order, nil)
	f.gateway.On("CreateRefund", "pi_test_1").Return(nil, errors.New("charge disputed"))
	f.audit.On("LogAction", "user-1", "order.refund_failed", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.Nil(t, result)
	assert.Nil(t, summary)
	var refundErr *RefundFailedError
	assert.ErrorAs(t, err, &refundErr)
	f.repo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, model.StatusCompleted, order.Status)
}

func TestCancelOrder_ProcessingRefundFailureFlagsForReview(t *testing.T) {
	f := newExpressFixture()
	order := cancellableOrder(model.StatusProcessing)
	order.StripePaymentIntentID = "pi_test_1"
	f.repo.On("GetByIDWithItems", "order-1").Return(order, nil)
	f.gateway.On("CreateRefund", "pi_test_1").Return(nil, errors.New("stripe unavailable"))
	f.repo.On("TransitionStatus", "order-1", model.StatusCancelled, mock.MatchedBy(func(extra map[string]interface{}) bool {
		return extra["needs_review"] == true
	})).Return(nil)
	f.audit.On("LogAction", "user-1", "order.cancelled", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, result.Status)
	assert.True(t, result.NeedsReview)
	assert.Nil(t, summary)
	f.repo.AssertExpectations(t)
}

func TestCancelOrder_ProcessingRefundSucceedsMarksRefunded(t *testing.T) {
	f := newExpressFixture()
	order := cancellableOrder(model.StatusProcessing)
	order.StripePaymentIntentID = "pi_test_1"
	f.repo.On("GetByIDWithItems", "order-1").Return(order, nil)
	f.gateway.On("CreateRefund", "pi_test_1").Return(&gateway.Refund{ID: "re_test_2", Status: "succeeded"}, nil)
	f.repo.On("TransitionStatus", "order-1", model.StatusRefunded, mock.MatchedBy(func(extra map[string]interface{}) bool {
		return extra["refund_id"] == "re_test_2"
	})).Return(nil)
	f.queue.On("Enqueue", mock.AnythingOfType("worker.EmailTask")).Return(true)
	f.audit.On("LogAction", "user-1", "order.refunded", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, result.Status)
	assert.False(t, result.NeedsReview)
	assert.Equal(t, "re_test_2", summary.RefundID)
}

func TestCancelOrder_ProcessingWithoutPaymentCancelsDirectly(t *testing.T) {
	f := newExpressFixture()
	f.repo.On("GetByIDWithItems", "order-1").Return(cancellableOrder(model.StatusProcessing), nil)
	f.repo.On("TransitionStatus", "order-1", model.StatusCancelled, mock.Anything).Return(nil)
	f.audit.On("LogAction", "user-1", "order.cancelled", "order", "order-1", mock.Anything).Return()

	result, summary, err := f.svc.CancelOrder("user-1", "order-1")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, result.Status)
	assert.Nil(t, summary)
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything)
}

func TestCancelOrder_OtherUsersOrderHidden(t *testing.T) {
	f := newExpressFixture()
	f.repo.On("GetByIDWithItems", "order-1").Return(cancellableOrder(model.StatusPending), nil)

	order, _, err := f.svc.CancelOrder("user-2", "order-1")

	assert.Nil(t, order)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 404, expErr.Status)
}

func TestCancelOrder_TerminalStatusRejected(t *testing.T) {
	f := newExpressFixture()
	f.repo.On("GetByIDWithItems", "order-1").Return(cancellableOrder(model.StatusCancelled), nil)

	order, _, err := f.svc.CancelOrder("user-1", "order-1")

	assert.Nil(t, order)
	var transErr *model.InvalidTransitionError
	assert.ErrorAs(t, err, &transErr)
	f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything)
}
