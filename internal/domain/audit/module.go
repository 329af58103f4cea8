package audit

import (
	"digistore/internal/domain/audit/handler"
	"digistore/internal/domain/audit/repository"
	"digistore/internal/pkg/middleware"
	"digistore/internal/pkg/registry"
)

// AuditModule 审计模块
type AuditModule struct{}

func init() {
	registry.Register(&AuditModule{})
}

func (m *AuditModule) Name() string {
	return "audit"
}

func (m *AuditModule) Priority() int {
	return 10
}

func (m *AuditModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewAuditRepository(ctx.DB)
	h := handler.NewAuditHandler(repo)

	g := ctx.Router.Group("/admin/audit-logs")
	g.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		g.GET("", h.ListByResource)
	}

	return nil
}
