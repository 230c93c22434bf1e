package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
)

// Re-engaging a cold lead flips the status and appends exactly one history
// row in the same transaction.
func TestMarkReEngaged_AppendsHistoryRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	repo := New(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE leads`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO lead_status_history`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	claimed, err := repo.MarkReEngaged(context.Background(), id)
	if err != nil {
		t.Fatalf("mark re-engaged: %v", err)
	}
	if !claimed {
		t.Fatal("expected the claim to succeed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A lost claim (the lead moved out of a cold-eligible status) must not touch
// the history table at all.
func TestMarkReEngaged_LostClaimLeavesHistoryAlone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	repo := New(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE leads`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectCommit()

	claimed, err := repo.MarkReEngaged(context.Background(), id)
	if err != nil {
		t.Fatalf("mark re-engaged: %v", err)
	}
	if claimed {
		t.Fatal("expected the claim to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
