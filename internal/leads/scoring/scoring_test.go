package scoring

import (
	"reflect"
	"testing"
)

func TestScore_Deterministic(t *testing.T) {
	input := Input{
		Phone:       "+15555550123",
		Email:       "jo@example.com",
		Service:     "deck",
		Description: "Looking to replace a 20x14 deck with composite boards",
		Budget:      "$15,000-$20,000",
		Timeframe:   "ASAP",
		Source:      "google_ads",
	}

	first := Score(input)
	for i := 0; i < 5; i++ {
		again := Score(input)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("score not deterministic: run %d got %+v, want %+v", i, again, first)
		}
	}
}

func TestScore_EmptyInputDoesNotFail(t *testing.T) {
	result := Score(Input{})

	if result.Score != baseScore {
		t.Fatalf("expected empty input to score base %d, got %d", baseScore, result.Score)
	}
	if result.Priority != PriorityStandard {
		t.Fatalf("expected standard priority, got %s", result.Priority)
	}
	if len(result.Factors) != 1 || result.Factors[0].Label != "base" {
		t.Fatalf("expected only the base factor, got %+v", result.Factors)
	}
}

func TestPriorityFor_Monotonic(t *testing.T) {
	rank := map[Priority]int{PriorityStandard: 0, PriorityWarm: 1, PriorityHot: 2}

	previous := PriorityFor(0)
	for score := 1; score <= 100; score++ {
		current := PriorityFor(score)
		if rank[current] < rank[previous] {
			t.Fatalf("priority regressed from %s to %s at score %d", previous, current, score)
		}
		previous = current
	}
}

func TestScore_PaidSourceAndContactabilityOutscoreOrganic(t *testing.T) {
	// Scenario: identical leads except for contactability and acquisition.
	rich := Score(Input{
		Phone:   "+15555550123",
		Email:   "jo@example.com",
		Service: "deck",
		Budget:  "$15,000-$20,000",
		Source:  "google_ads",
	})
	poor := Score(Input{
		Email:   "jo@example.com",
		Service: "deck",
		Budget:  "$15,000-$20,000",
		Source:  "website",
	})

	if rich.Score <= poor.Score {
		t.Fatalf("expected paid+phone lead to outscore organic no-phone lead: %d vs %d", rich.Score, poor.Score)
	}
}

func TestScore_BudgetParsing(t *testing.T) {
	tests := []struct {
		name   string
		budget string
		want   int
	}{
		{"range with commas", "$15,000-$20,000", 15},
		{"k suffix", "around 10k", 10},
		{"small figure", "$800", 5},
		{"no number", "not sure yet", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreBudget(tt.budget); got != tt.want {
				t.Fatalf("scoreBudget(%q) = %d, want %d", tt.budget, got, tt.want)
			}
		})
	}
}

func TestScore_TimeframeUrgency(t *testing.T) {
	urgent := Score(Input{Timeframe: "ASAP"})
	relaxed := Score(Input{Timeframe: "just browsing"})

	if urgent.Score <= relaxed.Score {
		t.Fatalf("urgent timeframe should outscore browsing: %d vs %d", urgent.Score, relaxed.Score)
	}
}

func TestScore_ClampedToRange(t *testing.T) {
	maxed := Score(Input{
		Phone:         "+15555550123",
		Email:         "jo@example.com",
		Service:       "outdoor_kitchen",
		Description:   "Full outdoor kitchen build with pizza oven, bar seating, and pergola cover",
		Budget:        "$80,000",
		Timeframe:     "ASAP",
		Source:        "google_ads",
		ChatQualified: true,
	})

	if maxed.Score > 100 {
		t.Fatalf("score exceeded cap: %d", maxed.Score)
	}
	if maxed.Priority != PriorityHot {
		t.Fatalf("expected hot priority for maxed lead, got %s", maxed.Priority)
	}
}
