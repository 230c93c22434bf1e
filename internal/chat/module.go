package chat

import (
	"context"

	apphttp "github.com/realnickp/BackyardBobbys-sub000/internal/http"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Module wires the assistant and its public endpoints.
type Module struct {
	handler *Handler
}

func NewModule(ctx context.Context, leads *service.Service, val *validator.Validator, cfg config.ChatConfig, log *logger.Logger) *Module {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		// A broken chat config should not keep the site from serving; run
		// degraded instead.
		log.Error("chat disabled", "error", err)
		client = nil
	}

	svc := NewService(client, log)
	return &Module{handler: NewHandler(svc, leads, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "chat" }

// RegisterRoutes mounts the public chat endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Public.Group("/chat")
	group.Use(ctx.PublicRateLimiter.RateLimit())
	group.POST("", m.handler.Message)
	group.POST("/submit", m.handler.Submit)
}
