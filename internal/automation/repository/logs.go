package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	LogStatusSent    = "sent"
	LogStatusFailed  = "failed"
	LogStatusSkipped = "skipped"
)

// LogEntry records one channel attempt by one rule against one lead.
// A "skipped" row still counts as a run for the once-per-lead dedupe.
type LogEntry struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Rule      string
	Channel   string
	Status    string
	Detail    *string
	CreatedAt time.Time
}

func (r *Repository) LogAutomation(ctx context.Context, entry LogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO automation_logs (lead_id, rule, channel, status, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.LeadID, entry.Rule, entry.Channel, entry.Status, entry.Detail)
	return err
}

type ListLogsParams struct {
	LeadID uuid.UUID
	Rule   string
	Limit  int
}

func (r *Repository) ListLogs(ctx context.Context, params ListLogsParams) ([]LogEntry, error) {
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, lead_id, rule, channel, status, detail, created_at
		FROM automation_logs
		WHERE ($1::uuid IS NULL OR lead_id = $1)
		  AND ($2 = '' OR rule = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	var leadID interface{}
	if params.LeadID != uuid.Nil {
		leadID = params.LeadID
	}

	rows, err := r.pool.Query(ctx, query, leadID, params.Rule, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]LogEntry, 0)
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.Rule, &entry.Channel, &entry.Status, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
