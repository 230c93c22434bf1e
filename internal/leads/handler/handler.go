package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/service"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/transport"
	"github.com/realnickp/BackyardBobbys-sub000/platform/httpkit"
	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

// Handler serves the staff-facing lead pipeline endpoints.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func NewHandler(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.svc.List(c.Request.Context(), repository.ListParams{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Source:   c.Query("source"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadListResponse(items, total))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	lead, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) StatusHistory(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	entries, err := h.svc.StatusHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToStatusHistoryResponse(entries))
}

func (h *Handler) RecordQuoteSent(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.QuoteSentRequest
	if !h.bind(c, &req) {
		return
	}
	lead, err := h.svc.RecordQuoteSent(c.Request.Context(), id, req.Amount)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) RecordQuoteDecision(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.QuoteDecisionRequest
	if !h.bind(c, &req) {
		return
	}
	lead, err := h.svc.RecordQuoteDecision(c.Request.Context(), id, *req.Accepted)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ScheduleAppointment(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.ScheduleAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	lead, err := h.svc.ScheduleAppointment(c.Request.Context(), id, req.Date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) CompleteJob(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.CompleteJobRequest
	if !h.bind(c, &req) {
		return
	}
	lead, err := h.svc.CompleteJob(c.Request.Context(), id, req.Date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) AddNote(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.CreateNoteRequest
	if !h.bind(c, &req) {
		return
	}
	author := c.GetString(httpkit.ContextUserNameKey)
	note, err := h.svc.AddNote(c.Request.Context(), id, author, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToNoteResponse(note))
}

func (h *Handler) ListNotes(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	notes, err := h.svc.Notes(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToNoteListResponse(notes))
}

func (h *Handler) LogCommunication(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.LogCommunicationRequest
	if !h.bind(c, &req) {
		return
	}
	comm, err := h.svc.LogCommunication(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToCommunicationResponse(comm))
}

func (h *Handler) ListCommunications(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	comms, err := h.svc.Communications(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCommunicationListResponse(comms))
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return false
	}
	return true
}
