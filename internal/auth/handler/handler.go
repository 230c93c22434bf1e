package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/realnickp/BackyardBobbys-sub000/internal/auth/service"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func NewHandler(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=200"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Name        string    `json:"name"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, loginResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		Name:        result.Name,
	})
}
