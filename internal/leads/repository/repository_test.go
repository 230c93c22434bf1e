package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
)

var leadColumnNames = []string{
	"id", "name", "phone", "email", "city", "zip", "service", "description", "budget", "timeframe", "style",
	"source", "utm_source", "utm_medium", "utm_campaign", "landing_page_url",
	"score", "priority", "score_factors", "status",
	"first_contact_at", "quote_sent_at", "quote_amount", "quote_accepted",
	"appointment_scheduled", "appointment_date", "job_completed", "job_completion_date", "review_requested",
	"chat_transcript", "created_at", "updated_at",
}

func leadRow(id uuid.UUID, status string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(leadColumnNames).AddRow(
		id, "Maria Lopez", "+15551230000", nil, nil, nil, "deck", "", nil, nil, nil,
		"website", nil, nil, nil, nil,
		55, "warm", []byte("[]"), status,
		nil, nil, nil, nil,
		false, nil, false, nil, false,
		nil, now, now,
	)
}

// A status transition writes the lead row and exactly one history row in the
// same transaction. Nothing in the repository updates or deletes history.
func TestUpdateStatus_AppendsExactlyOneHistoryRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	repo := New(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE leads SET status`).
		WithArgs(id, "contacted").
		WillReturnRows(leadRow(id, "contacted"))
	mock.ExpectExec(`INSERT INTO lead_status_history`).
		WithArgs(id, "contacted").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	lead, err := repo.UpdateStatus(context.Background(), id, "contacted")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if lead.Status != "contacted" {
		t.Fatalf("expected status contacted, got %s", lead.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Creating a lead seeds the history with its initial status, inside the same
// transaction as the insert.
func TestCreate_SeedsStatusHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	repo := New(mock)
	id := uuid.New()

	mock.ExpectBegin()
	anyArgs := make([]interface{}, 19)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectQuery(`INSERT INTO leads`).
		WithArgs(anyArgs...).
		WillReturnRows(leadRow(id, "new"))
	mock.ExpectExec(`INSERT INTO lead_status_history`).
		WithArgs(id, "new").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	lead, err := repo.Create(context.Background(), CreateLeadParams{
		Name: "Maria Lopez", Phone: "+15551230000", Service: "deck",
		Source: "website", Score: 55, Priority: "warm", ScoreFactors: []byte("[]"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.ID != id {
		t.Fatalf("expected lead %s, got %s", id, lead.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
