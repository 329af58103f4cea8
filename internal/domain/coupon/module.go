package coupon

import (
	catalogRepo "digistore/internal/domain/catalog/repository"
	catalogService "digistore/internal/domain/catalog/service"
	"digistore/internal/domain/coupon/handler"
	"digistore/internal/domain/coupon/repository"
	"digistore/internal/domain/coupon/service"
	"digistore/internal/pkg/middleware"
	"digistore/internal/pkg/registry"
)

// CouponModule 优惠券模块
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	// 依赖商品目录模块
	return 15
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCouponRepository(ctx.DB, ctx.Redis)
	svc := service.NewCouponService(repo)

	catalog := catalogService.NewCatalogService(catalogRepo.NewProductRepository(ctx.DB))
	h := handler.NewCouponHandler(svc, catalog)

	g := ctx.Router.Group("/coupons")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/validate", h.ValidateCoupon)
	}

	admin := ctx.Router.Group("/admin/coupons")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("", h.ListCoupons)
		admin.POST("", h.CreateCoupon)
		admin.DELETE("/:id", h.DeactivateCoupon)
	}

	return nil
}
