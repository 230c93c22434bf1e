package automation

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/evaluator"
	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/handler"
	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/repository"
	apphttp "github.com/realnickp/BackyardBobbys-sub000/internal/http"
	"github.com/realnickp/BackyardBobbys-sub000/internal/notify"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Module wires the evaluator, its repository, and the trigger endpoints.
type Module struct {
	evaluator *evaluator.Evaluator
	handler   *handler.Handler
	runSecret string
	jwtCfg    config.JWTConfig
}

func NewModule(ctx context.Context, pool *pgxpool.Pool, dispatcher *notify.Dispatcher, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)
	if err := Seed(ctx, repo); err != nil {
		return nil, err
	}

	eval := evaluator.New(repo, dispatcher, log, cfg.GetAdminPhone(), cfg.GetReviewLink())

	return &Module{
		evaluator: eval,
		handler:   handler.NewHandler(eval, repo, val, log),
		runSecret: cfg.GetAutomationRunSecret(),
		jwtCfg:    cfg,
	}, nil
}

// Evaluator exposes the evaluator for the scheduler worker.
func (m *Module) Evaluator() *evaluator.Evaluator {
	return m.evaluator
}

// Name returns the module identifier.
func (m *Module) Name() string { return "automation" }

// RegisterRoutes mounts the trigger and rule-management routes. The run
// endpoint accepts either the scheduler's shared secret or a staff token;
// everything else is staff only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/api/automations/run", httpkit.SecretOrAuth(m.runSecret, m.jwtCfg), m.handler.Run)

	group := ctx.Protected.Group("/automations")
	group.GET("", m.handler.ListRules)
	group.PATCH("/:name", m.handler.SetActive)
	group.GET("/logs", m.handler.ListLogs)
}
