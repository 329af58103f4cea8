package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"digistore/internal/domain/order/model"
	"digistore/internal/domain/order/service"
	"digistore/internal/pkg/config"
	"digistore/internal/pkg/middleware"
	"digistore/pkg/logger"
	"digistore/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type ExpressOrderInput struct {
	ProductID      string `json:"productId" binding:"required,uuid"`
	CouponCode     string `json:"couponCode"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// CreateExpressOrder 快捷下单
// @Summary 快捷下单（单商品）
// @Tags Order
// @Accept json
// @Produce json
// @Param input body ExpressOrderInput true "Order"
// @Success 201 {object} response.Response{data=model.Order}
// @Router /orders/express [post]
func (h *OrderHandler) CreateExpressOrder(c *gin.Context) {
	var input ExpressOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.CreateExpressOrder(middleware.GetUserID(c), input.ProductID, input.CouponCode, input.IdempotencyKey)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, order)
}

// GetOrder 查询订单详情
// @Summary 查询订单详情
// @Tags Order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 查询订单列表
// @Summary 查询当前用户订单列表
// @Tags Order
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	orders, total, err := h.service.ListOrders(middleware.GetUserID(c), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":  orders,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// CreateCheckoutSession 创建托管支付会话
// @Summary 为订单创建 Stripe 托管支付会话
// @Tags Order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/checkout-session [post]
func (h *OrderHandler) CreateCheckoutSession(c *gin.Context) {
	order, url, err := h.service.CreateCheckoutSession(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"orderId":     order.ID,
		"sessionId":   order.StripeCheckoutSessionID,
		"checkoutUrl": url,
	})
}

// CreatePaymentIntent 创建支付意图
// @Summary 为订单创建 Stripe 支付意图
// @Tags Order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/payment-intent [post]
func (h *OrderHandler) CreatePaymentIntent(c *gin.Context) {
	order, pi, err := h.service.CreatePaymentIntent(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"orderId":      order.ID,
		"intentId":     pi.ID,
		"clientSecret": pi.ClientSecret,
		"status":       pi.Status,
	})
}

// CancelOrder 取消订单
// @Summary 取消订单（已支付订单自动退款）
// @Tags Order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, refund, err := h.service.CancelOrder(middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order":  order,
		"refund": refund,
	})
}

// stripeEventObject webhook 事件对象中关心的字段
type stripeEventObject struct {
	ID string `json:"id"`
}

// HandleStripeWebhook 处理 Stripe webhook 回调
// 签名校验失败返回 400，业务处理失败返回 500 让 Stripe 重试；
// 已处理过的事件和未知引用返回 200 终止重试
func (h *OrderHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), config.GlobalConfig.Stripe.WebhookSecret)
	if err != nil {
		logger.Log.Warn("Webhook signature verification failed", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	var obj stripeEventObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		logger.Log.Error("Failed to decode webhook event object",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.service.HandlePaymentSucceeded(event.ID, obj.ID)
	case "payment_intent.succeeded":
		err = h.service.HandlePaymentSucceeded(event.ID, obj.ID)
	default:
		logger.Log.Debug("Ignoring unhandled webhook event type",
			zap.String("event_type", string(event.Type)),
		)
	}

	if err != nil {
		logger.Log.Error("Webhook processing failed",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

// respondError 将领域错误映射为统一响应
func (h *OrderHandler) respondError(c *gin.Context, err error) {
	var expErr *service.ExpressOrderError
	if errors.As(err, &expErr) {
		switch expErr.Status {
		case http.StatusNotFound:
			response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, expErr.Message)
		case http.StatusConflict:
			response.Error(c, http.StatusConflict, response.ErrInvalidTransition, expErr.Message)
		case http.StatusUnprocessableEntity:
			response.Error(c, http.StatusUnprocessableEntity, response.ErrOrderBelowMinimum, expErr.Message)
		default:
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, expErr.Message)
		}
		return
	}

	var transErr *model.InvalidTransitionError
	if errors.As(err, &transErr) {
		response.Error(c, http.StatusConflict, response.ErrInvalidTransition, transErr.Error())
		return
	}

	var priceErr *service.PriceNotConfiguredError
	if errors.As(err, &priceErr) {
		response.Error(c, http.StatusInternalServerError, response.ErrPriceNotConfigured, priceErr.Error())
		return
	}

	var refundErr *service.RefundFailedError
	if errors.As(err, &refundErr) {
		response.Error(c, http.StatusBadGateway, response.ErrRefundFailed, refundErr.Error())
		return
	}

	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
}
