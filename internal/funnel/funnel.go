// Package funnel drives the guided multi-step qualifier on the public site.
// Session state lives in Redis; the definitions here are static because the
// question flow changes with code, not with operator config.
package funnel

import (
	"errors"
	"time"
)

var (
	ErrUnknownFunnel = errors.New("unknown funnel")
	ErrUnknownStep   = errors.New("unknown step")
	ErrAtFirstStep   = errors.New("already at the first step")
)

// Step is one question in a funnel. Options empty means free text.
type Step struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// Definition is an ordered list of steps. The last answered step completes
// the funnel.
type Definition struct {
	ID    string
	Steps []Step
}

// State is one visitor's progress through a funnel.
type State struct {
	SessionID   string            `json:"sessionId"`
	FunnelID    string            `json:"funnelId"`
	CurrentStep string            `json:"currentStep"`
	Answers     map[string]string `json:"answers"`
	Completed   bool              `json:"completed"`
	StartedAt   time.Time         `json:"startedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// quoteFunnel is the main "get a quote" flow. Step IDs map straight onto
// lead submission fields.
var quoteFunnel = Definition{
	ID: "quote",
	Steps: []Step{
		{
			ID:      "service",
			Prompt:  "What are we building for you?",
			Options: []string{"deck", "pergola", "patio", "fence", "outdoor_kitchen", "landscaping", "other"},
		},
		{
			ID:     "description",
			Prompt: "Tell us a bit about the project. Size, materials, anything you have in mind.",
		},
		{
			ID:      "timeframe",
			Prompt:  "When would you like the work done?",
			Options: []string{"As soon as possible", "Within a month", "This season", "Just browsing"},
		},
		{
			ID:      "budget",
			Prompt:  "Do you have a budget range in mind?",
			Options: []string{"Under $5,000", "$5,000 - $15,000", "$15,000+", "Not sure yet"},
		},
		{
			ID:     "name",
			Prompt: "Almost done! What's your name?",
		},
		{
			ID:     "phone",
			Prompt: "And the best number to reach you?",
		},
		{
			ID:     "email",
			Prompt: "Email too, if you'd like a written quote. (Or type 'skip'.)",
		},
	},
}

var definitions = map[string]Definition{
	quoteFunnel.ID: quoteFunnel,
}

// Lookup returns the definition for a funnel id.
func Lookup(funnelID string) (Definition, error) {
	def, ok := definitions[funnelID]
	if !ok {
		return Definition{}, ErrUnknownFunnel
	}
	return def, nil
}

func (d Definition) stepIndex(stepID string) int {
	for i, step := range d.Steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

// Step returns the step with the given id.
func (d Definition) Step(stepID string) (Step, error) {
	idx := d.stepIndex(stepID)
	if idx < 0 {
		return Step{}, ErrUnknownStep
	}
	return d.Steps[idx], nil
}

// Advance records the answer for the state's current step and moves to the
// next one, marking the state completed after the final step. The answer for
// a re-answered step simply overwrites the previous value.
func Advance(state *State, answer string) (Step, error) {
	def, err := Lookup(state.FunnelID)
	if err != nil {
		return Step{}, err
	}

	idx := def.stepIndex(state.CurrentStep)
	if idx < 0 {
		return Step{}, ErrUnknownStep
	}

	if state.Answers == nil {
		state.Answers = make(map[string]string)
	}
	state.Answers[state.CurrentStep] = answer
	state.UpdatedAt = time.Now()

	if idx+1 >= len(def.Steps) {
		state.Completed = true
		return Step{}, nil
	}

	next := def.Steps[idx+1]
	state.CurrentStep = next.ID
	return next, nil
}

// Back moves the state to the previous step so the visitor can change an
// answer. The old answer stays until Advance overwrites it.
func Back(state *State) (Step, error) {
	def, err := Lookup(state.FunnelID)
	if err != nil {
		return Step{}, err
	}

	idx := def.stepIndex(state.CurrentStep)
	if idx < 0 {
		return Step{}, ErrUnknownStep
	}
	if idx == 0 && !state.Completed {
		return Step{}, ErrAtFirstStep
	}

	if state.Completed {
		// Reopen the last step.
		state.Completed = false
		idx = len(def.Steps)
	}

	prev := def.Steps[idx-1]
	state.CurrentStep = prev.ID
	state.UpdatedAt = time.Now()
	return prev, nil
}

// NewState starts a funnel at its first step.
func NewState(sessionID, funnelID string) (State, Step, error) {
	def, err := Lookup(funnelID)
	if err != nil {
		return State{}, Step{}, err
	}
	first := def.Steps[0]
	now := time.Now()
	return State{
		SessionID:   sessionID,
		FunnelID:    funnelID,
		CurrentStep: first.ID,
		Answers:     make(map[string]string),
		StartedAt:   now,
		UpdatedAt:   now,
	}, first, nil
}
