package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Author    string
	Body      string
	CreatedAt time.Time
}

func (r *Repository) CreateNote(ctx context.Context, leadID uuid.UUID, author, body string) (Note, error) {
	var note Note
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, author, body)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, author, body, created_at
	`, leadID, author, body).Scan(&note.ID, &note.LeadID, &note.Author, &note.Body, &note.CreatedAt)
	return note, err
}

func (r *Repository) ListNotes(ctx context.Context, leadID uuid.UUID) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author, body, created_at
		FROM lead_notes WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.LeadID, &note.Author, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
