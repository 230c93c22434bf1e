package chat

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/domain"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/transport"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

type Handler struct {
	svc      *Service
	leads    *service.Service
	validate *validator.Validator
}

func NewHandler(svc *Service, leads *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, leads: leads, validate: validate}
}

type messageRequest struct {
	Turns []Turn `json:"turns" validate:"required,min=1,max=50,dive"`
}

type messageResponse struct {
	Reply   string `json:"reply"`
	Enabled bool   `json:"enabled"`
}

// Message returns the assistant's next reply. Always 200: degradation shows
// up as the canned reply with enabled=false.
func (h *Handler) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	httpkit.OK(c, messageResponse{
		Reply:   h.svc.Reply(c.Request.Context(), req.Turns),
		Enabled: h.svc.Enabled(),
	})
}

type submitRequest struct {
	Turns []Turn `json:"turns" validate:"required,min=1,max=50,dive"`
	// Contact fields the widget collects on hand-off; they win over
	// whatever extraction finds.
	Name  string  `json:"name" validate:"omitempty,min=2,max=100"`
	Phone string  `json:"phone" validate:"omitempty,max=30"`
	Email *string `json:"email" validate:"omitempty,email,max=254"`
}

// Submit converts a chat conversation into a lead. Extraction fills the
// gaps the visitor did not type into the hand-off form.
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

	extracted := h.svc.Extract(c.Request.Context(), req.Turns)

	leadReq := transport.PublicLeadRequest{
		Name:          firstNonEmpty(req.Name, extracted.Name),
		Phone:         firstNonEmpty(req.Phone, extracted.Phone),
		Service:       firstNonEmpty(extracted.Service, "other"),
		Description:   extracted.Description,
		Email:         req.Email,
		ChatQualified: extracted.Qualified,
	}
	if leadReq.Email == nil && extracted.Email != "" {
		leadReq.Email = &extracted.Email
	}
	if extracted.Budget != "" {
		leadReq.Budget = &extracted.Budget
	}
	if extracted.Timeframe != "" {
		leadReq.Timeframe = &extracted.Timeframe
	}
	transcript := TranscriptText(req.Turns)
	leadReq.ChatTranscript = &transcript
	source := domain.SourceChatbot
	leadReq.Source = &source

	if err := h.validate.Struct(&leadReq); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid submission", nil)
		return
	}

	result, err := h.leads.Submit(c.Request.Context(), leadReq)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.PublicLeadResponse{
		Success:  true,
		LeadID:   result.LeadID,
		Score:    result.Score,
		Priority: result.Priority,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
