// Package auth provides staff authentication for the dashboard.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realnickp/BackyardBobbys-sub000/internal/auth/handler"
	"github.com/realnickp/BackyardBobbys-sub000/internal/auth/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/auth/service"
	apphttp "github.com/realnickp/BackyardBobbys-sub000/internal/http"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Module wires staff login.
type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.AuthServiceConfig) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, cfg)
	return &Module{handler: handler.NewHandler(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "auth" }

// RegisterRoutes mounts the login endpoint. Login sits outside the
// protected group but behind the public rate limiter to slow brute force.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/api/auth/login", ctx.PublicRateLimiter.RateLimit(), m.handler.Login)
}
