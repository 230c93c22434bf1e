package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
)

// PublicLeadRequest is the body of the public submission endpoint. Every
// free-text field is length-capped here and sanitized again in the service.
type PublicLeadRequest struct {
	Name           string  `json:"name" validate:"required,min=2,max=100"`
	Phone          string  `json:"phone" validate:"required,max=30"`
	Email          *string `json:"email" validate:"omitempty,email,max=254"`
	City           *string `json:"city" validate:"omitempty,max=100"`
	Zip            *string `json:"zip" validate:"omitempty,max=10"`
	Service        string  `json:"service" validate:"required,max=50"`
	Description    string  `json:"description" validate:"omitempty,max=2000"`
	Budget         *string `json:"budget" validate:"omitempty,max=50"`
	Timeframe      *string `json:"timeframe" validate:"omitempty,max=100"`
	Style          *string `json:"style" validate:"omitempty,max=100"`
	Source         *string `json:"source" validate:"omitempty,max=50"`
	UTMSource      *string `json:"utm_source" validate:"omitempty,max=100"`
	UTMMedium      *string `json:"utm_medium" validate:"omitempty,max=100"`
	UTMCampaign    *string `json:"utm_campaign" validate:"omitempty,max=100"`
	LandingPageURL *string `json:"landing_page_url" validate:"omitempty,max=500"`
	ChatTranscript *string `json:"chat_transcript" validate:"omitempty,max=20000"`
	ChatQualified  bool    `json:"chat_qualified"`
}

// PublicLeadResponse deliberately exposes nothing beyond the identifiers the
// thank-you page needs. LeadID is null when persistence degraded.
type PublicLeadResponse struct {
	Success  bool       `json:"success"`
	LeadID   *uuid.UUID `json:"leadId"`
	Score    int        `json:"score"`
	Priority string     `json:"priority"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=20"`
}

type QuoteSentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type QuoteDecisionRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type ScheduleAppointmentRequest struct {
	Date time.Time `json:"date" validate:"required"`
}

type CompleteJobRequest struct {
	Date *time.Time `json:"date"`
}

type CreateNoteRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type LogCommunicationRequest struct {
	Type    string  `json:"type" validate:"required,oneof=call email sms"`
	Content string  `json:"content" validate:"required,max=4000"`
	Outcome *string `json:"outcome" validate:"omitempty,max=200"`
}

type LeadResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Phone                string          `json:"phone"`
	Email                *string         `json:"email"`
	City                 *string         `json:"city"`
	Zip                  *string         `json:"zip"`
	Service              string          `json:"service"`
	Description          string          `json:"description"`
	Budget               *string         `json:"budget"`
	Timeframe            *string         `json:"timeframe"`
	Style                *string         `json:"style"`
	Source               string          `json:"source"`
	UTMSource            *string         `json:"utmSource"`
	UTMMedium            *string         `json:"utmMedium"`
	UTMCampaign          *string         `json:"utmCampaign"`
	LandingPageURL       *string         `json:"landingPageUrl"`
	Score                int             `json:"score"`
	Priority             string          `json:"priority"`
	ScoreFactors         json.RawMessage `json:"scoreFactors"`
	Status               string          `json:"status"`
	FirstContactAt       *time.Time      `json:"firstContactAt"`
	QuoteSentAt          *time.Time      `json:"quoteSentAt"`
	QuoteAmount          *float64        `json:"quoteAmount"`
	QuoteAccepted        *bool           `json:"quoteAccepted"`
	AppointmentScheduled bool            `json:"appointmentScheduled"`
	AppointmentDate      *time.Time      `json:"appointmentDate"`
	JobCompleted         bool            `json:"jobCompleted"`
	JobCompletionDate    *time.Time      `json:"jobCompletionDate"`
	ReviewRequested      bool            `json:"reviewRequested"`
	ChatTranscript       *string         `json:"chatTranscript"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	factors := json.RawMessage(lead.ScoreFactors)
	if len(factors) == 0 {
		factors = json.RawMessage("[]")
	}
	return LeadResponse{
		ID:                   lead.ID,
		Name:                 lead.Name,
		Phone:                lead.Phone,
		Email:                lead.Email,
		City:                 lead.City,
		Zip:                  lead.Zip,
		Service:              lead.Service,
		Description:          lead.Description,
		Budget:               lead.Budget,
		Timeframe:            lead.Timeframe,
		Style:                lead.Style,
		Source:               lead.Source,
		UTMSource:            lead.UTMSource,
		UTMMedium:            lead.UTMMedium,
		UTMCampaign:          lead.UTMCampaign,
		LandingPageURL:       lead.LandingPageURL,
		Score:                lead.Score,
		Priority:             lead.Priority,
		ScoreFactors:         factors,
		Status:               lead.Status,
		FirstContactAt:       lead.FirstContactAt,
		QuoteSentAt:          lead.QuoteSentAt,
		QuoteAmount:          lead.QuoteAmount,
		QuoteAccepted:        lead.QuoteAccepted,
		AppointmentScheduled: lead.AppointmentScheduled,
		AppointmentDate:      lead.AppointmentDate,
		JobCompleted:         lead.JobCompleted,
		JobCompletionDate:    lead.JobCompletionDate,
		ReviewRequested:      lead.ReviewRequested,
		ChatTranscript:       lead.ChatTranscript,
		CreatedAt:            lead.CreatedAt,
		UpdatedAt:            lead.UpdatedAt,
	}
}

type LeadSummaryResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	Email              *string   `json:"email"`
	City               *string   `json:"city"`
	Service            string    `json:"service"`
	Source             string    `json:"source"`
	Score              int       `json:"score"`
	Priority           string    `json:"priority"`
	Status             string    `json:"status"`
	NoteCount          int       `json:"noteCount"`
	CommunicationCount int       `json:"communicationCount"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadSummaryResponse `json:"items"`
	Total int                   `json:"total"`
}

func ToLeadListResponse(items []repository.LeadSummary, total int) LeadListResponse {
	out := make([]LeadSummaryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, LeadSummaryResponse{
			ID:                 item.ID,
			Name:               item.Name,
			Phone:              item.Phone,
			Email:              item.Email,
			City:               item.City,
			Service:            item.Service,
			Source:             item.Source,
			Score:              item.Score,
			Priority:           item.Priority,
			Status:             item.Status,
			NoteCount:          item.NoteCount,
			CommunicationCount: item.CommunicationCount,
			CreatedAt:          item.CreatedAt,
			UpdatedAt:          item.UpdatedAt,
		})
	}
	return LeadListResponse{Items: out, Total: total}
}

type StatusHistoryResponse struct {
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToStatusHistoryResponse(entries []repository.StatusEntry) []StatusHistoryResponse {
	out := make([]StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, StatusHistoryResponse{Status: entry.Status, CreatedAt: entry.CreatedAt})
	}
	return out
}

type NoteResponse struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToNoteResponse(note repository.Note) NoteResponse {
	return NoteResponse{ID: note.ID, Author: note.Author, Body: note.Body, CreatedAt: note.CreatedAt}
}

func ToNoteListResponse(notes []repository.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, ToNoteResponse(note))
	}
	return out
}

type CommunicationResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Outcome   *string   `json:"outcome"`
	Automated bool      `json:"automated"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToCommunicationResponse(comm repository.Communication) CommunicationResponse {
	return CommunicationResponse{
		ID:        comm.ID,
		Type:      comm.Type,
		Content:   comm.Content,
		Outcome:   comm.Outcome,
		Automated: comm.Automated,
		CreatedAt: comm.CreatedAt,
	}
}

func ToCommunicationListResponse(comms []repository.Communication) []CommunicationResponse {
	out := make([]CommunicationResponse, 0, len(comms))
	for _, comm := range comms {
		out = append(out, ToCommunicationResponse(comm))
	}
	return out
}
