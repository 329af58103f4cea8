package user

import (
	"digistore/internal/domain/user/handler"
	"digistore/internal/domain/user/repository"
	"digistore/internal/pkg/middleware"
	"digistore/internal/pkg/registry"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	return 10
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewUserRepository(ctx.DB)
	h := handler.NewUserHandler(repo)

	g := ctx.Router.Group("/users")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("/me", h.GetMe)
		g.PUT("/me", h.UpdateMe)
	}

	return nil
}
