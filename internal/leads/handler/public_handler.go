package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/transport"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// PublicHandler serves the unauthenticated submission surface. Validation
// failures return a deliberately generic message so the endpoint leaks
// nothing about the schema to scrapers.
type PublicHandler struct {
	svc      *service.Service
	validate *validator.Validator
}

func NewPublicHandler(svc *service.Service, validate *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, validate: validate}
}

func (h *PublicHandler) Submit(c *gin.Context) {
	var req transport.PublicLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid submission", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid submission", nil)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), req)
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
