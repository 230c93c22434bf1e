package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Communication struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Type      string
	Content   string
	Outcome   *string
	Automated bool
	CreatedAt time.Time
}

type CreateCommunicationParams struct {
	LeadID    uuid.UUID
	Type      string
	Content   string
	Outcome   *string
	Automated bool
}

func (r *Repository) CreateCommunication(ctx context.Context, params CreateCommunicationParams) (Communication, error) {
	var comm Communication
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_communications (lead_id, type, content, outcome, automated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, type, content, outcome, automated, created_at
	`, params.LeadID, params.Type, params.Content, params.Outcome, params.Automated).
		Scan(&comm.ID, &comm.LeadID, &comm.Type, &comm.Content, &comm.Outcome, &comm.Automated, &comm.CreatedAt)
	return comm, err
}

func (r *Repository) ListCommunications(ctx context.Context, leadID uuid.UUID) ([]Communication, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, type, content, outcome, automated, created_at
		FROM lead_communications WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comms := make([]Communication, 0)
	for rows.Next() {
		var comm Communication
		if err := rows.Scan(&comm.ID, &comm.LeadID, &comm.Type, &comm.Content, &comm.Outcome, &comm.Automated, &comm.CreatedAt); err != nil {
			return nil, err
		}
		comms = append(comms, comm)
	}
	return comms, rows.Err()
}
