package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/evaluator"
	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/repository"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

type Handler struct {
	evaluator *evaluator.Evaluator
	repo      *repository.Repository
	validate  *validator.Validator
	log       *logger.Logger
}

func NewHandler(eval *evaluator.Evaluator, repo *repository.Repository, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{evaluator: eval, repo: repo, validate: validate, log: log}
}

// Run triggers a full evaluator pass. Reachable by the scheduler (shared
// secret) or a logged-in operator.
func (h *Handler) Run(c *gin.Context) {
	summary, err := h.evaluator.Run(c.Request.Context())
	if err != nil {
		h.log.Error("automation run failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "automation run failed", nil)
		return
	}
	httpkit.OK(c, summary)
}

type ruleResponse struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.repo.ListRules(c.Request.Context())
	if err != nil {
		h.log.DatabaseError("automation.list_rules", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not load rules", nil)
		return
	}

	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleResponse{
			Name:        rule.Name,
			Description: rule.Description,
			Active:      rule.Active,
			UpdatedAt:   rule.UpdatedAt,
		})
	}
	httpkit.OK(c, out)
}

type setActiveRequest struct {
	// Expected is the state the operator last saw; the update only applies
	// if it still holds.
	Expected *bool `json:"expected" validate:"required"`
	Active   *bool `json:"active" validate:"required"`
}

func (h *Handler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	rule, err := h.repo.SetRuleActive(c.Request.Context(), c.Param("name"), *req.Expected, *req.Active)
	if err == repository.ErrRuleNotFound {
		httpkit.Error(c, http.StatusConflict, "rule not found or state changed", nil)
		return
	}
	if err != nil {
		h.log.DatabaseError("automation.set_active", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not update rule", nil)
		return
	}

	httpkit.OK(c, ruleResponse{
		Name:        rule.Name,
		Description: rule.Description,
		Active:      rule.Active,
		UpdatedAt:   rule.UpdatedAt,
	})
}

type logResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	Rule      string    `json:"rule"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Detail    *string   `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) ListLogs(c *gin.Context) {
	params := repository.ListLogsParams{Rule: c.Query("rule")}
	if raw := c.Query("lead_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid lead_id", nil)
			return
		}
		params.LeadID = id
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}

	entries, err := h.repo.ListLogs(c.Request.Context(), params)
	if err != nil {
		h.log.DatabaseError("automation.list_logs", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not load logs", nil)
		return
	}

	out := make([]logResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, logResponse{
			ID:        entry.ID,
			LeadID:    entry.LeadID,
			Rule:      entry.Rule,
			Channel:   entry.Channel,
			Status:    entry.Status,
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt,
		})
	}
	httpkit.OK(c, out)
}
