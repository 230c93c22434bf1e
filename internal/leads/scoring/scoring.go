// Package scoring computes lead scores at creation time.
//
// Scoring is a pure function over the submitted lead attributes: no I/O, no
// clock, no randomness. Every contributing condition is recorded as a named
// factor with its point delta so the dashboard can show why a lead scored
// the way it did. Factors are for transparency, not decisioning.
package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// Leads start at 20 and factors add/subtract from this.
	baseScore = 20

	// Priority tier cutoffs. Must stay monotonic: a higher score may never
	// map to a lower tier.
	hotThreshold  = 70
	warmThreshold = 40
)

// Priority is the derived urgency tier for a scored lead.
type Priority string

const (
	PriorityHot      Priority = "hot"
	PriorityWarm     Priority = "warm"
	PriorityStandard Priority = "standard"
)

// Factor is one named contribution to a lead's score.
type Factor struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// Input holds the lead attributes considered by the scoring model.
// Every field may be empty; an absent field contributes zero points.
type Input struct {
	Phone         string
	Email         string
	Service       string
	Description   string
	Budget        string
	Timeframe     string
	Source        string
	ChatQualified bool
}

// Result is the scoring output persisted on the lead.
type Result struct {
	Score    int      `json:"score"`
	Priority Priority `json:"priority"`
	Factors  []Factor `json:"factors"`
	Version  string   `json:"version"`
}

// serviceTiers maps service categories to their revenue-potential delta.
// Outdoor kitchens and pergolas are the highest-ticket jobs; fences and
// plain landscaping the lowest.
var serviceTiers = map[string]int{
	"outdoor_kitchen": 15,
	"pergola":         15,
	"deck":            10,
	"patio":           10,
	"fence":           5,
	"landscaping":     5,
}

// Score computes the score, priority tier, and factor list for a lead.
// It never fails; malformed or missing fields simply contribute nothing.
func Score(input Input) Result {
	score := baseScore
	factors := []Factor{{Label: "base", Points: baseScore}}

	add := func(label string, points int) {
		if points == 0 {
			return
		}
		score += points
		factors = append(factors, Factor{Label: label, Points: points})
	}

	if strings.TrimSpace(input.Phone) != "" {
		add("phone provided", 15)
	}
	if strings.TrimSpace(input.Email) != "" {
		add("email provided", 10)
	}

	add("service tier", scoreService(input.Service))
	add("timeframe urgency", scoreTimeframe(input.Timeframe))
	add("budget specificity", scoreBudget(input.Budget))

	if len(strings.TrimSpace(input.Description)) >= 40 {
		add("detailed description", 5)
	}

	add("acquisition source", scoreSource(input.Source))

	if input.ChatQualified {
		add("chat qualified", 10)
	}

	score = clamp(score)

	return Result{
		Score:    score,
		Priority: PriorityFor(score),
		Factors:  factors,
		Version:  scoreVersion,
	}
}

// PriorityFor buckets a score into its priority tier.
func PriorityFor(score int) Priority {
	switch {
	case score >= hotThreshold:
		return PriorityHot
	case score >= warmThreshold:
		return PriorityWarm
	default:
		return PriorityStandard
	}
}

func scoreService(service string) int {
	return serviceTiers[strings.ToLower(strings.TrimSpace(service))]
}

// scoreTimeframe reads urgency out of the free-text timeframe band.
// Keyword matching here is intentionally coarse: the field comes from a
// fixed set of quiz options plus occasional free text.
func scoreTimeframe(timeframe string) int {
	t := strings.ToLower(timeframe)
	switch {
	case t == "":
		return 0
	case containsAny(t, "asap", "immediately", "right away", "this week", "urgent"):
		return 20
	case containsAny(t, "month", "30 days", "soon"):
		return 12
	case containsAny(t, "spring", "summer", "fall", "winter", "this year", "few months"):
		return 5
	case containsAny(t, "browsing", "someday", "not sure", "no rush"):
		return -5
	default:
		return 0
	}
}

var budgetNumberRegex = regexp.MustCompile(`(\d+)(k)?`)

// scoreBudget rewards concrete budget figures. "I don't know" earns nothing;
// a named dollar amount signals a buyer who has thought about the project.
func scoreBudget(budget string) int {
	amount := maxBudgetAmount(budget)
	switch {
	case amount >= 15000:
		return 15
	case amount >= 5000:
		return 10
	case amount > 0:
		return 5
	default:
		return 0
	}
}

// maxBudgetAmount extracts the largest dollar figure from free text like
// "$15,000-$20,000" or "around 10k". Returns 0 when no number is present.
func maxBudgetAmount(budget string) int {
	normalized := strings.ReplaceAll(strings.ToLower(budget), ",", "")
	matches := budgetNumberRegex.FindAllStringSubmatch(normalized, -1)

	max := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if m[2] == "k" {
			n *= 1000
		}
		if n > max {
			max = n
		}
	}
	return max
}

func scoreSource(source string) int {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "google_ads", "facebook_ads":
		return 15
	case "referral":
		return 8
	case "landing_page":
		return 5
	default:
		return 0
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
