package funnel

import (
	"github.com/redis/go-redis/v9"

	apphttp "github.com/realnickp/BackyardBobbys-sub000/internal/http"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Module wires the funnel store and public endpoints.
type Module struct {
	handler *Handler
}

func NewModule(client *redis.Client, leads *service.Service, val *validator.Validator, cfg config.FunnelConfig, log *logger.Logger) *Module {
	store := NewStore(client, cfg.GetFunnelSessionTTL())
	return &Module{
		handler: NewHandler(store, leads, val, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "funnel" }

// RegisterRoutes mounts the public funnel endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Public.Group("/funnel")
	group.Use(ctx.PublicRateLimiter.RateLimit())
	group.POST("/start", m.handler.Start)
	group.POST("/answer", m.handler.Answer)
	group.POST("/back", m.handler.Back)
	group.POST("/submit", m.handler.Submit)
}
