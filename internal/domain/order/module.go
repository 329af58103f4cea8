package order

import (
	auditRepo "digistore/internal/domain/audit/repository"
	auditService "digistore/internal/domain/audit/service"
	catalogRepo "digistore/internal/domain/catalog/repository"
	catalogService "digistore/internal/domain/catalog/service"
	couponRepo "digistore/internal/domain/coupon/repository"
	couponService "digistore/internal/domain/coupon/service"
	"digistore/internal/domain/order/gateway"
	"digistore/internal/domain/order/handler"
	"digistore/internal/domain/order/repository"
	"digistore/internal/domain/order/service"
	userRepo "digistore/internal/domain/user/repository"
	"digistore/internal/pkg/mailer"
	"digistore/internal/pkg/middleware"
	"digistore/internal/pkg/registry"
	"digistore/internal/pkg/worker"
	"digistore/pkg/logger"

	"go.uber.org/zap"
)

// OrderModule 订单模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	// 依赖目录、优惠券和用户模块
	return 20
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	gw, err := gateway.NewStripeGateway()
	if err != nil {
		return err
	}

	// SMTP 未配置时降级为不发信，不阻塞启动
	var queue worker.Enqueuer
	if sender, err := mailer.NewSMTPSender(); err != nil {
		logger.Log.Warn("SMTP not configured, transactional emails disabled", zap.Error(err))
	} else {
		pool := worker.NewWorkerPool(sender, 4, 256)
		pool.Start()
		queue = pool
	}

	catalog := catalogService.NewCatalogService(catalogRepo.NewProductRepository(ctx.DB))
	coupons := couponService.NewCouponService(couponRepo.NewCouponRepository(ctx.DB, ctx.Redis))
	audit := auditService.NewAuditService(auditRepo.NewAuditRepository(ctx.DB))

	svc := service.NewOrderService(
		repository.NewOrderRepository(ctx.DB),
		userRepo.NewUserRepository(ctx.DB),
		catalog,
		coupons,
		gw,
		audit,
		queue,
		ctx.Redis,
	)
	h := handler.NewOrderHandler(svc)

	g := ctx.Router.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/express", h.CreateExpressOrder)
		g.GET("", h.ListOrders)
		g.GET("/:id", h.GetOrder)
		g.POST("/:id/checkout-session", h.CreateCheckoutSession)
		g.POST("/:id/payment-intent", h.CreatePaymentIntent)
		g.POST("/:id/cancel", h.CancelOrder)
	}

	// webhook 由 Stripe 签名鉴权，不走 JWT
	ctx.Router.POST("/webhooks/stripe", h.HandleStripeWebhook)

	return nil
}
