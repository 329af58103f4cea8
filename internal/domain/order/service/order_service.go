package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	auditService "digistore/internal/domain/audit/service"
	catalogService "digistore/internal/domain/catalog/service"
	couponService "digistore/internal/domain/coupon/service"
	"digistore/internal/domain/order/gateway"
	"digistore/internal/domain/order/model"
	"digistore/internal/domain/order/repository"
	userRepo "digistore/internal/domain/user/repository"
	"digistore/internal/pkg/worker"
	"digistore/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// expressReuseWindow 快捷下单的幂等复用窗口
// 窗口外或条件不匹配时总是创建新订单；窗口外的并发重复提交
// 会产生重复的 pending 订单，这是可接受的（未发生扣款）
const expressReuseWindow = 10 * time.Minute

// ExpressOrderError 业务规则拒绝，携带 HTTP 风格状态码和可展示的原因
type ExpressOrderError struct {
	Status  int
	Message string
}

func (e *ExpressOrderError) Error() string {
	return e.Message
}

// PriceNotConfiguredError SKU 缺少 Stripe Price 映射，属于硬配置错误
type PriceNotConfiguredError struct {
	SKU string
}

func (e *PriceNotConfiguredError) Error() string {
	return fmt.Sprintf("no stripe price configured for sku %q", e.SKU)
}

// RefundFailedError 退款失败；Stripe 返回的用户可见原因可直接展示
type RefundFailedError struct {
	Err error
}

func (e *RefundFailedError) Error() string {
	return fmt.Sprintf("refund failed: %v", e.Err)
}

func (e *RefundFailedError) Unwrap() error {
	return e.Err
}

// RefundSummary 退款结果摘要
type RefundSummary struct {
	RefundID string  `json:"refundId"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

// OrderService 订单服务接口
type OrderService interface {
	// CreateExpressOrder 创建快捷订单（单商品，支持幂等复用）
	CreateExpressOrder(userID, productID, couponCode, idempotencyKey string) (*model.Order, error)
	// CreateCheckoutSession 为 pending 订单创建（或复用）Stripe 托管支付会话
	CreateCheckoutSession(userID, orderID string) (*model.Order, string, error)
	// CreatePaymentIntent 为 pending 订单创建（或复用）Stripe 支付意图
	CreatePaymentIntent(userID, orderID string) (*model.Order, *gateway.PaymentIntent, error)
	// HandlePaymentSucceeded 处理支付成功回调，对账并推进订单状态
	HandlePaymentSucceeded(eventID, paymentRef string) error
	// CancelOrder 取消订单（必要时先退款）
	CancelOrder(userID, orderID string) (*model.Order, *RefundSummary, error)
	GetOrder(userID, orderID string) (*model.Order, error)
	ListOrders(userID string, page, limit int) ([]model.Order, int64, error)
}

type orderService struct {
	repo      repository.OrderRepository
	users     userRepo.UserRepository
	catalog   catalogService.CatalogService
	coupons   couponService.CouponService
	gateway   gateway.PaymentGateway
	audit     auditService.AuditService
	queue     worker.Enqueuer
	rdb       *redis.Client
	collector *metrics.Collector
}

func NewOrderService(
	repo repository.OrderRepository,
	users userRepo.UserRepository,
	catalog catalogService.CatalogService,
	coupons couponService.CouponService,
	gw gateway.PaymentGateway,
	audit auditService.AuditService,
	queue worker.Enqueuer,
	rdb *redis.Client,
) OrderService {
	return &orderService{
		repo:      repo,
		users:     users,
		catalog:   catalog,
		coupons:   coupons,
		gateway:   gw,
		audit:     audit,
		queue:     queue,
		rdb:       rdb,
		collector: metrics.Default(),
	}
}

// generateOrderNumber 生成人类可读的订单号
func generateOrderNumber() string {
	return fmt.Sprintf("ORD%s%s", time.Now().Format("20060102150405"), uuid.New().String()[:8])
}

// 金额换算只发生在与 Stripe 的边界上

// toCents 主货币单位 -> 分
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// fromCents 分 -> 主货币单位
func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

func (s *orderService) GetOrder(userID, orderID string) (*model.Order, error) {
	order, err := s.repo.GetByIDWithItems(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ExpressOrderError{Status: 404, Message: "Order not found"}
		}
		return nil, err
	}
	// 订单归属校验：不泄露他人订单的存在
	if order.UserID != userID {
		return nil, &ExpressOrderError{Status: 404, Message: "Order not found"}
	}
	return order, nil
}

func (s *orderService) ListOrders(userID string, page, limit int) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(userID, (page-1)*limit, limit)
}
