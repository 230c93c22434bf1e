package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/events"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/domain"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/scoring"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/transport"
	"github.com/realnickp/BackyardBobbys-sub000/platform/apperr"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/phone"
	"github.com/realnickp/BackyardBobbys-sub000/platform/sanitize"
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

func NewService(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Repo exposes the underlying repository to sibling modules that log
// automated communications against leads.
func (s *Service) Repo() *repository.Repository {
	return s.repo
}

// SubmissionResult is what the public surface reports back. LeadID stays nil
// when every persistence attempt failed; the score is still real.
type SubmissionResult struct {
	LeadID   *uuid.UUID
	Score    int
	Priority string
}

// Submit scores and persists a public lead submission. Persistence is
// best-effort with a reduced-column fallback: the caller gets a score and
// priority even when the database is down, because the visitor already gave
// us their contact details and a hard failure would lose the lead twice.
func (s *Service) Submit(ctx context.Context, req transport.PublicLeadRequest) (SubmissionResult, error) {
	name := sanitize.Truncate(sanitize.Text(req.Name), 100)
	description := sanitize.Truncate(sanitize.Text(req.Description), 2000)

	normalizedPhone := phone.NormalizeE164(req.Phone)

	service := strings.ToLower(strings.TrimSpace(req.Service))
	if !domain.IsKnownService(service) {
		service = domain.ServiceOther
	}

	source := domain.SourceWebsite
	if req.Source != nil {
		if candidate := strings.ToLower(strings.TrimSpace(*req.Source)); candidate != "" {
			source = sanitize.Truncate(candidate, 50)
		}
	}

	result := scoring.Score(scoring.Input{
		Phone:         normalizedPhone,
		Email:         deref(req.Email),
		Service:       service,
		Description:   description,
		Budget:        deref(req.Budget),
		Timeframe:     deref(req.Timeframe),
		Source:        source,
		ChatQualified: req.ChatQualified,
	})

	factors, err := json.Marshal(result.Factors)
	if err != nil {
		factors = []byte("[]")
	}
	priority := string(result.Priority)

	params := repository.CreateLeadParams{
		Name:           name,
		Phone:          normalizedPhone,
		Email:          sanitizePtr(req.Email, 254),
		City:           sanitizePtr(req.City, 100),
		Zip:            sanitizePtr(req.Zip, 10),
		Service:        service,
		Description:    description,
		Budget:         sanitizePtr(req.Budget, 50),
		Timeframe:      sanitizePtr(req.Timeframe, 100),
		Style:          sanitizePtr(req.Style, 100),
		Source:         source,
		UTMSource:      sanitizePtr(req.UTMSource, 100),
		UTMMedium:      sanitizePtr(req.UTMMedium, 100),
		UTMCampaign:    sanitizePtr(req.UTMCampaign, 100),
		LandingPageURL: sanitizePtr(req.LandingPageURL, 500),
		Score:          result.Score,
		Priority:       priority,
		ScoreFactors:   factors,
		ChatTranscript: sanitizePtr(req.ChatTranscript, 20000),
	}

	lead, err := s.repo.Create(ctx, params)
	if err == nil {
		s.bus.Publish(ctx, events.NewLeadCreated(lead.ID, name, normalizedPhone, service, result.Score, priority))
		return SubmissionResult{LeadID: &lead.ID, Score: result.Score, Priority: priority}, nil
	}
	s.log.DatabaseError("leads.insert", err)

	// Reduced-column fallback for partially migrated schemas.
	if id, rerr := s.repo.CreateReduced(ctx, params); rerr == nil {
		s.bus.Publish(ctx, events.NewLeadCreated(id, name, normalizedPhone, service, result.Score, priority))
		return SubmissionResult{LeadID: &id, Score: result.Score, Priority: priority}, nil
	} else {
		s.log.DatabaseError("leads.insert_reduced", rerr)
	}

	// Both inserts failed. The submission still "succeeds" from the
	// visitor's perspective; ops finds the payload in the error log.
	s.log.Error("lead submission not persisted",
		"name", name, "phone", normalizedPhone, "service", service, "score", result.Score)
	return SubmissionResult{LeadID: nil, Score: result.Score, Priority: priority}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.Get")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.Get")
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.LeadSummary, int, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.List")
	}
	return items, total, nil
}

// UpdateStatus transitions a lead to a known status and appends the matching
// history entry. Unknown statuses are rejected before any write.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.IsKnownStatus(status) {
		return repository.Lead{}, apperr.Validation("unknown status: " + status).WithOp("leads.UpdateStatus")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	if current.Status == status {
		return current, nil
	}

	lead, err := s.repo.UpdateStatus(ctx, id, status)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.UpdateStatus")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.UpdateStatus")
	}

	s.bus.Publish(ctx, events.NewLeadStatusChanged(id, current.Status, status))
	return lead, nil
}

func (s *Service) StatusHistory(ctx context.Context, id uuid.UUID) ([]repository.StatusEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListStatusHistory(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.StatusHistory")
	}
	return entries, nil
}

func (s *Service) RecordQuoteSent(ctx context.Context, id uuid.UUID, amount float64) (repository.Lead, error) {
	lead, err := s.repo.RecordQuoteSent(ctx, id, amount, time.Now())
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.RecordQuoteSent")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.RecordQuoteSent")
	}
	return lead, nil
}

func (s *Service) RecordQuoteDecision(ctx context.Context, id uuid.UUID, accepted bool) (repository.Lead, error) {
	lead, err := s.repo.RecordQuoteAccepted(ctx, id, accepted)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.RecordQuoteDecision")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.RecordQuoteDecision")
	}
	return lead, nil
}

func (s *Service) ScheduleAppointment(ctx context.Context, id uuid.UUID, date time.Time) (repository.Lead, error) {
	if date.Before(time.Now()) {
		return repository.Lead{}, apperr.Validation("appointment date is in the past").WithOp("leads.ScheduleAppointment")
	}
	lead, err := s.repo.ScheduleAppointment(ctx, id, date)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.ScheduleAppointment")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.ScheduleAppointment")
	}
	return lead, nil
}

func (s *Service) CompleteJob(ctx context.Context, id uuid.UUID, date *time.Time) (repository.Lead, error) {
	completedOn := time.Now()
	if date != nil {
		completedOn = *date
	}
	lead, err := s.repo.MarkJobCompleted(ctx, id, completedOn)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.CompleteJob")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.CompleteJob")
	}
	return lead, nil
}

func (s *Service) AddNote(ctx context.Context, id uuid.UUID, author, body string) (repository.Note, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return repository.Note{}, err
	}
	note, err := s.repo.CreateNote(ctx, id, author, sanitize.Truncate(sanitize.Text(body), 4000))
	if err != nil {
		return repository.Note{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.AddNote")
	}
	return note, nil
}

func (s *Service) Notes(ctx context.Context, id uuid.UUID) ([]repository.Note, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListNotes(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.Notes")
	}
	return notes, nil
}

// LogCommunication records a manual outreach attempt by staff and, because
// any staff outreach counts as first contact, stamps first_contact_at once.
func (s *Service) LogCommunication(ctx context.Context, id uuid.UUID, req transport.LogCommunicationRequest) (repository.Communication, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return repository.Communication{}, err
	}

	comm, err := s.repo.CreateCommunication(ctx, repository.CreateCommunicationParams{
		LeadID:    id,
		Type:      req.Type,
		Content:   sanitize.Truncate(sanitize.Text(req.Content), 4000),
		Outcome:   sanitizePtr(req.Outcome, 200),
		Automated: false,
	})
	if err != nil {
		return repository.Communication{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.LogCommunication")
	}

	if err := s.repo.SetFirstContact(ctx, id, time.Now()); err != nil {
		s.log.DatabaseError("leads.set_first_contact", err)
	}
	return comm, nil
}

func (s *Service) Communications(ctx context.Context, id uuid.UUID) ([]repository.Communication, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	comms, err := s.repo.ListCommunications(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("leads.Communications")
	}
	return comms, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sanitizePtr(s *string, max int) *string {
	if s == nil {
		return nil
	}
	cleaned := sanitize.Truncate(sanitize.Text(*s), max)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
