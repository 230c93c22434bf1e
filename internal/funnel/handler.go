package funnel

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/transport"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Handler serves the public funnel endpoints. All state lives in the store;
// the client only holds a session id.
type Handler struct {
	store    *Store
	leads    *service.Service
	validate *validator.Validator
	log      *logger.Logger
}

func NewHandler(store *Store, leads *service.Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{store: store, leads: leads, validate: validate, log: log}
}

type startRequest struct {
	FunnelID string `json:"funnelId" validate:"required,max=50"`
}

type stepResponse struct {
	SessionID string `json:"sessionId"`
	Step      *Step  `json:"step"`
	Completed bool   `json:"completed"`
}

func (h *Handler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	state, first, err := NewState(uuid.NewString(), req.FunnelID)
	if errors.Is(err, ErrUnknownFunnel) {
		httpkit.Error(c, http.StatusNotFound, "unknown funnel", nil)
		return
	}

	if err := h.store.Save(c.Request.Context(), state); err != nil {
		h.log.Error("funnel save failed", "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "funnel unavailable", nil)
		return
	}

	httpkit.OK(c, stepResponse{SessionID: state.SessionID, Step: &first})
}

type answerRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	Answer    string `json:"answer" validate:"required,max=2000"`
}

func (h *Handler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	state, err := h.loadSession(c, req.SessionID)
	if err != nil {
		return
	}

	next, err := Advance(&state, req.Answer)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "funnel state invalid", nil)
		return
	}

	if err := h.store.Save(c.Request.Context(), state); err != nil {
		h.log.Error("funnel save failed", "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "funnel unavailable", nil)
		return
	}

	resp := stepResponse{SessionID: state.SessionID, Completed: state.Completed}
	if !state.Completed {
		resp.Step = &next
	}
	httpkit.OK(c, resp)
}

type backRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
}

func (h *Handler) Back(c *gin.Context) {
	var req backRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	state, err := h.loadSession(c, req.SessionID)
	if err != nil {
		return
	}

	prev, err := Back(&state)
	if errors.Is(err, ErrAtFirstStep) {
		httpkit.Error(c, http.StatusBadRequest, "already at the first step", nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "funnel state invalid", nil)
		return
	}

	if err := h.store.Save(c.Request.Context(), state); err != nil {
		h.log.Error("funnel save failed", "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "funnel unavailable", nil)
		return
	}

	httpkit.OK(c, stepResponse{SessionID: state.SessionID, Step: &prev})
}

type submitRequest struct {
	SessionID string  `json:"sessionId" validate:"required,uuid"`
	Source    *string `json:"source" validate:"omitempty,max=50"`
}

// Submit converts a completed funnel session into a lead submission and
// discards the session. Funnel-sourced leads count as chat qualified: the
// visitor answered every qualifying question.
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	state, err := h.loadSession(c, req.SessionID)
	if err != nil {
		return
	}
	if !state.Completed {
		httpkit.Error(c, http.StatusBadRequest, "funnel not completed", nil)
		return
	}

	leadReq := leadRequestFromAnswers(state.Answers)
	leadReq.Source = req.Source
	if err := h.validate.Struct(&leadReq); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid submission", nil)
		return
	}

	result, err := h.leads.Submit(c.Request.Context(), leadReq)
	if httpkit.HandleError(c, err) {
		return
	}

	if err := h.store.Delete(c.Request.Context(), state.SessionID); err != nil {
		h.log.Error("funnel session cleanup failed", "error", err, "sessionId", state.SessionID)
	}

	httpkit.OK(c, transport.PublicLeadResponse{
		Success:  true,
		LeadID:   result.LeadID,
		Score:    result.Score,
		Priority: result.Priority,
	})
}

func leadRequestFromAnswers(answers map[string]string) transport.PublicLeadRequest {
	req := transport.PublicLeadRequest{
		Name:          answers["name"],
		Phone:         answers["phone"],
		Service:       answers["service"],
		Description:   answers["description"],
		ChatQualified: true,
	}
	if v := answers["timeframe"]; v != "" {
		req.Timeframe = &v
	}
	if v := answers["budget"]; v != "" {
		req.Budget = &v
	}
	if v := strings.TrimSpace(answers["email"]); v != "" && !strings.EqualFold(v, "skip") {
		req.Email = &v
	}
	return req
}

func (h *Handler) loadSession(c *gin.Context, sessionID string) (State, error) {
	state, err := h.store.Load(c.Request.Context(), sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		httpkit.Error(c, http.StatusNotFound, "session not found or expired", nil)
		return State{}, err
	}
	if err != nil {
		h.log.Error("funnel load failed", "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "funnel unavailable", nil)
		return State{}, err
	}
	return state, nil
}
