package catalog

import (
	"digistore/internal/domain/catalog/handler"
	"digistore/internal/domain/catalog/repository"
	"digistore/internal/domain/catalog/service"
	"digistore/internal/pkg/registry"
)

// CatalogModule 商品目录模块
type CatalogModule struct{}

func init() {
	registry.Register(&CatalogModule{})
}

func (m *CatalogModule) Name() string {
	return "catalog"
}

func (m *CatalogModule) Priority() int {
	return 10
}

func (m *CatalogModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewProductRepository(ctx.DB)
	svc := service.NewCatalogService(repo)
	h := handler.NewProductHandler(svc)

	g := ctx.Router.Group("/products")
	{
		g.GET("", h.ListProducts)
		g.GET("/:slug", h.GetProduct)
	}

	return nil
}
