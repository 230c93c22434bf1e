package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("lead not found")

// DB is the slice of pgxpool.Pool the repository uses. Satisfied by the
// real pool and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	pool DB
}

func New(pool DB) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                   uuid.UUID
	Name                 string
	Phone                string
	Email                *string
	City                 *string
	Zip                  *string
	Service              string
	Description          string
	Budget               *string
	Timeframe            *string
	Style                *string
	Source               string
	UTMSource            *string
	UTMMedium            *string
	UTMCampaign          *string
	LandingPageURL       *string
	Score                int
	Priority             string
	ScoreFactors         []byte
	Status               string
	FirstContactAt       *time.Time
	QuoteSentAt          *time.Time
	QuoteAmount          *float64
	QuoteAccepted        *bool
	AppointmentScheduled bool
	AppointmentDate      *time.Time
	JobCompleted         bool
	JobCompletionDate    *time.Time
	ReviewRequested      bool
	ChatTranscript       *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// LeadSummary is the lightweight list representation with related-record counts.
type LeadSummary struct {
	ID                 uuid.UUID
	Name               string
	Phone              string
	Email              *string
	City               *string
	Service            string
	Source             string
	Score              int
	Priority           string
	Status             string
	NoteCount          int
	CommunicationCount int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type StatusEntry struct {
	Status    string
	CreatedAt time.Time
}

const leadColumns = `id, name, phone, email, city, zip, service, description, budget, timeframe, style,
	source, utm_source, utm_medium, utm_campaign, landing_page_url,
	score, priority, score_factors, status,
	first_contact_at, quote_sent_at, quote_amount, quote_accepted,
	appointment_scheduled, appointment_date, job_completed, job_completion_date, review_requested,
	chat_transcript, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.City, &lead.Zip,
		&lead.Service, &lead.Description, &lead.Budget, &lead.Timeframe, &lead.Style,
		&lead.Source, &lead.UTMSource, &lead.UTMMedium, &lead.UTMCampaign, &lead.LandingPageURL,
		&lead.Score, &lead.Priority, &lead.ScoreFactors, &lead.Status,
		&lead.FirstContactAt, &lead.QuoteSentAt, &lead.QuoteAmount, &lead.QuoteAccepted,
		&lead.AppointmentScheduled, &lead.AppointmentDate, &lead.JobCompleted, &lead.JobCompletionDate, &lead.ReviewRequested,
		&lead.ChatTranscript, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

type CreateLeadParams struct {
	Name           string
	Phone          string
	Email          *string
	City           *string
	Zip            *string
	Service        string
	Description    string
	Budget         *string
	Timeframe      *string
	Style          *string
	Source         string
	UTMSource      *string
	UTMMedium      *string
	UTMCampaign    *string
	LandingPageURL *string
	Score          int
	Priority       string
	ScoreFactors   []byte
	ChatTranscript *string
}

// Create inserts a lead with its initial "new" status history entry in one
// transaction, so the history tail always matches the status column.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `
		INSERT INTO leads (
			name, phone, email, city, zip, service, description, budget, timeframe, style,
			source, utm_source, utm_medium, utm_campaign, landing_page_url,
			score, priority, score_factors, chat_transcript
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+leadColumns,
		params.Name, params.Phone, params.Email, params.City, params.Zip,
		params.Service, params.Description, params.Budget, params.Timeframe, params.Style,
		params.Source, params.UTMSource, params.UTMMedium, params.UTMCampaign, params.LandingPageURL,
		params.Score, params.Priority, params.ScoreFactors, params.ChatTranscript,
	))
	if err != nil {
		return Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, $2)
	`, lead.ID, lead.Status); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}

	return lead, nil
}

// CreateReduced is the fallback insert used when the full-schema insert
// fails. It writes only the columns that every schema revision has carried.
func (r *Repository) CreateReduced(ctx context.Context, params CreateLeadParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, phone, service, source, score, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, params.Name, params.Phone, params.Service, params.Source, params.Score, params.Priority).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, 'new')
	`, id)
	return id, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
}

type ListParams struct {
	Status   string
	Priority string
	Source   string
	Search   string
	Limit    int
	Offset   int
}

// List returns lead summaries ordered newest first, with note and
// communication counts computed from the related tables.
func (r *Repository) List(ctx context.Context, params ListParams) ([]LeadSummary, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addFilter("l.status", params.Status)
	addFilter("l.priority", params.Priority)
	addFilter("l.source", params.Source)

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(l.name ILIKE $%d OR l.phone ILIKE $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM leads l WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	args = append(args, limit, params.Offset)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT l.id, l.name, l.phone, l.email, l.city, l.service, l.source,
			l.score, l.priority, l.status,
			(SELECT COUNT(*) FROM lead_notes n WHERE n.lead_id = l.id),
			(SELECT COUNT(*) FROM lead_communications c WHERE c.lead_id = l.id),
			l.created_at, l.updated_at
		FROM leads l
		WHERE %s
		ORDER BY l.created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]LeadSummary, 0)
	for rows.Next() {
		var item LeadSummary
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Phone, &item.Email, &item.City, &item.Service, &item.Source,
			&item.Score, &item.Priority, &item.Status,
			&item.NoteCount, &item.CommunicationCount,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return items, total, nil
}

// UpdateStatus transitions a lead and appends the matching history entry in
// one transaction. The history table is append-only; there is no path that
// deletes or rewrites its rows.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, status,
	))
	if err != nil {
		return Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, $2)
	`, id, status); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) ListStatusHistory(ctx context.Context, id uuid.UUID) ([]StatusEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, created_at FROM lead_status_history
		WHERE lead_id = $1 ORDER BY created_at ASC, id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]StatusEntry, 0)
	for rows.Next() {
		var entry StatusEntry
		if err := rows.Scan(&entry.Status, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetFirstContact stamps first_contact_at if it has never been set.
// The column is write-once: any later call is a no-op.
func (r *Repository) SetFirstContact(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET first_contact_at = $2, updated_at = now()
		WHERE id = $1 AND first_contact_at IS NULL
	`, id, at)
	return err
}

func (r *Repository) RecordQuoteSent(ctx context.Context, id uuid.UUID, amount float64, at time.Time) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET quote_sent_at = $2, quote_amount = $3, status = 'quoted', updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, at, amount,
	))
	if err != nil {
		return Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, 'quoted')
	`, id); err != nil {
		return Lead{}, err
	}

	return lead, tx.Commit(ctx)
}

func (r *Repository) RecordQuoteAccepted(ctx context.Context, id uuid.UUID, accepted bool) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET quote_accepted = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, accepted,
	))
}

func (r *Repository) ScheduleAppointment(ctx context.Context, id uuid.UUID, date time.Time) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET appointment_scheduled = TRUE, appointment_date = $2, status = 'scheduled', updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, date,
	))
	if err != nil {
		return Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, 'scheduled')
	`, id); err != nil {
		return Lead{}, err
	}

	return lead, tx.Commit(ctx)
}

func (r *Repository) MarkJobCompleted(ctx context.Context, id uuid.UUID, completedOn time.Time) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET job_completed = TRUE, job_completion_date = $2, status = 'completed', updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, completedOn,
	))
	if err != nil {
		return Lead{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, 'completed')
	`, id); err != nil {
		return Lead{}, err
	}

	return lead, tx.Commit(ctx)
}

// AppendChatTranscript appends text to the lead's running chat transcript.
func (r *Repository) AppendChatTranscript(ctx context.Context, id uuid.UUID, text string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET chat_transcript = COALESCE(chat_transcript || E'\n', '') || $2, updated_at = now()
		WHERE id = $1
	`, id, text)
	return err
}
