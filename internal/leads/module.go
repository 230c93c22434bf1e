// Package leads provides the lead pipeline bounded context module.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realnickp/BackyardBobbys-sub000/internal/events"
	apphttp "github.com/realnickp/BackyardBobbys-sub000/internal/http"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/handler"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
	public  *handler.PublicHandler
}

// NewModule creates and initializes the leads module with its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, bus, log)

	return &Module{
		svc:     svc,
		handler: handler.NewHandler(svc, val),
		public:  handler.NewPublicHandler(svc, val),
	}
}

// Service exposes the lead service for other modules (chat hand-off).
func (m *Module) Service() *service.Service {
	return m.svc
}

// Repository exposes the repository for the automation and notification
// modules, which log communications and stamp contact milestones.
func (m *Module) Repository() *repository.Repository {
	return m.svc.Repo()
}

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts public submission and staff pipeline routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Public.POST("/leads", ctx.PublicRateLimiter.RateLimit(), m.public.Submit)

	group := ctx.Protected.Group("/leads")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id/status", m.handler.UpdateStatus)
	group.GET("/:id/history", m.handler.StatusHistory)
	group.POST("/:id/quote", m.handler.RecordQuoteSent)
	group.PATCH("/:id/quote", m.handler.RecordQuoteDecision)
	group.POST("/:id/appointment", m.handler.ScheduleAppointment)
	group.POST("/:id/complete", m.handler.CompleteJob)
	group.GET("/:id/notes", m.handler.ListNotes)
	group.POST("/:id/notes", m.handler.AddNote)
	group.GET("/:id/communications", m.handler.ListCommunications)
	group.POST("/:id/communications", m.handler.LogCommunication)
}
