package funnel

import (
	"errors"
	"testing"
)

func TestNewState_StartsAtFirstStep(t *testing.T) {
	state, first, err := NewState("session-1", "quote")
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	if first.ID != "service" {
		t.Fatalf("expected first step service, got %s", first.ID)
	}
	if state.CurrentStep != "service" || state.Completed {
		t.Fatalf("unexpected initial state %+v", state)
	}
}

func TestNewState_UnknownFunnel(t *testing.T) {
	if _, _, err := NewState("session-1", "nope"); !errors.Is(err, ErrUnknownFunnel) {
		t.Fatalf("expected ErrUnknownFunnel, got %v", err)
	}
}

func TestAdvance_WalksEveryStepToCompletion(t *testing.T) {
	state, _, err := NewState("session-1", "quote")
	if err != nil {
		t.Fatalf("new state: %v", err)
	}

	answers := []string{"deck", "12x16 cedar deck with railing", "As soon as possible", "$15,000+", "Maria Lopez", "555-123-0000", "maria@example.com"}
	for i, answer := range answers {
		_, err := Advance(&state, answer)
		if err != nil {
			t.Fatalf("advance step %d: %v", i, err)
		}
	}

	if !state.Completed {
		t.Fatalf("expected completion after final answer, state %+v", state)
	}
	if state.Answers["service"] != "deck" || state.Answers["email"] != "maria@example.com" {
		t.Fatalf("answers not recorded: %+v", state.Answers)
	}
}

func TestBack_AllowsReanswering(t *testing.T) {
	state, _, err := NewState("session-1", "quote")
	if err != nil {
		t.Fatalf("new state: %v", err)
	}

	if _, err := Advance(&state, "fence"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	prev, err := Back(&state)
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if prev.ID != "service" {
		t.Fatalf("expected to return to service step, got %s", prev.ID)
	}

	// Re-answer overwrites.
	if _, err := Advance(&state, "deck"); err != nil {
		t.Fatalf("re-advance: %v", err)
	}
	if state.Answers["service"] != "deck" {
		t.Fatalf("expected overwritten answer, got %q", state.Answers["service"])
	}
}

func TestBack_AtFirstStep(t *testing.T) {
	state, _, err := NewState("session-1", "quote")
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	if _, err := Back(&state); !errors.Is(err, ErrAtFirstStep) {
		t.Fatalf("expected ErrAtFirstStep, got %v", err)
	}
}

func TestBack_ReopensCompletedFunnel(t *testing.T) {
	state, _, err := NewState("session-1", "quote")
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	def, _ := Lookup("quote")
	for range def.Steps {
		if _, err := Advance(&state, "x"); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if !state.Completed {
		t.Fatalf("expected completed state")
	}

	prev, err := Back(&state)
	if err != nil {
		t.Fatalf("back from completed: %v", err)
	}
	if state.Completed {
		t.Fatalf("expected funnel reopened")
	}
	if prev.ID != def.Steps[len(def.Steps)-1].ID {
		t.Fatalf("expected last step, got %s", prev.ID)
	}
}

func TestLeadRequestFromAnswers_SkipEmail(t *testing.T) {
	req := leadRequestFromAnswers(map[string]string{
		"name":        "Dan Webb",
		"phone":       "555-123-0000",
		"service":     "pergola",
		"description": "attached pergola over patio",
		"email":       "skip",
		"budget":      "$5,000 - $15,000",
	})
	if req.Email != nil {
		t.Fatalf("expected skipped email to stay nil, got %v", *req.Email)
	}
	if !req.ChatQualified {
		t.Fatalf("funnel submissions must count as qualified")
	}
	if req.Budget == nil || *req.Budget != "$5,000 - $15,000" {
		t.Fatalf("budget not carried through")
	}
}
