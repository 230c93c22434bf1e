// Package evaluator runs the time-windowed follow-up rules that keep leads
// moving through the pipeline without anyone watching a dashboard.
package evaluator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/notify"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

// Rule names double as automations table keys and automation_logs dedupe keys.
const (
	RuleInstantWelcome      = "instant_welcome"
	RuleNoResponseFollowup  = "no_response_followup"
	RuleQuoteFollowup       = "quote_followup"
	RuleAppointmentReminder = "appointment_reminder"
	RuleReviewRequest       = "review_request"
	RuleColdReengagement    = "cold_reengagement"
)

const (
	welcomeWindow  = 5 * time.Minute
	followupWindow = 24 * time.Hour
	quoteWindow    = 48 * time.Hour
	reminderLower  = 23 * time.Hour
	reminderUpper  = 25 * time.Hour
	reviewWindow   = 72 * time.Hour
	coldWindow     = 30 * 24 * time.Hour

	staleScorePenalty = 5
)

// Store is the persistence surface the evaluator needs. Implemented by the
// automation repository; faked in tests.
type Store interface {
	ActiveRules(ctx context.Context) (map[string]bool, error)
	WelcomeCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]repository.Candidate, error)
	StaleNewCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]repository.Candidate, error)
	QuoteFollowupCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]repository.Candidate, error)
	AppointmentReminderCandidates(ctx context.Context, rule string, now time.Time, lower, upper time.Duration) ([]repository.Candidate, error)
	ReviewRequestCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]repository.Candidate, error)
	ColdCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]repository.Candidate, error)
	DecrementScoreIfUncontacted(ctx context.Context, id uuid.UUID, points int) (bool, error)
	MarkReviewRequested(ctx context.Context, id uuid.UUID) (bool, error)
	MarkReEngaged(ctx context.Context, id uuid.UUID) (bool, error)
	LogAutomation(ctx context.Context, entry repository.LogEntry) error
}

// Dispatcher fans one notification out across channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, req notify.Request) []notify.ChannelResult
}

// Evaluator walks every active rule over the lead table. All dependencies
// are injected; nothing here reaches for globals.
type Evaluator struct {
	store      Store
	dispatcher Dispatcher
	log        *logger.Logger
	adminPhone string
	reviewLink string
	now        func() time.Time
}

type Option func(*Evaluator)

// WithClock overrides the evaluator's notion of now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func New(store Store, dispatcher Dispatcher, log *logger.Logger, adminPhone, reviewLink string, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:      store,
		dispatcher: dispatcher,
		log:        log,
		adminPhone: adminPhone,
		reviewLink: reviewLink,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Action is one attempted outreach, mirroring the automation_logs row it
// produced. Surfaced on the run summary so a manual trigger shows exactly
// what went out.
type Action struct {
	LeadID  uuid.UUID `json:"leadId"`
	Rule    string    `json:"rule"`
	Channel string    `json:"channel,omitempty"`
	Status  string    `json:"status"`
	Detail  string    `json:"detail,omitempty"`
}

// RuleSummary reports one rule's pass.
type RuleSummary struct {
	Rule       string `json:"rule"`
	Active     bool   `json:"active"`
	Candidates int    `json:"candidates"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`

	actions []Action
}

// Summary reports one full evaluator run.
type Summary struct {
	RanAt   time.Time     `json:"ranAt"`
	Rules   []RuleSummary `json:"rules"`
	Actions []Action      `json:"actions"`
}

type ruleFunc func(ctx context.Context, now time.Time) (RuleSummary, error)

// Run evaluates every rule against the current lead table. Rules execute
// concurrently; leads within a rule are processed in order. A rule that
// fails to even list candidates fails the run, but per-lead failures only
// show up in the summary counts and action log.
func (e *Evaluator) Run(ctx context.Context) (Summary, error) {
	now := e.now()

	active, err := e.store.ActiveRules(ctx)
	if err != nil {
		return Summary{}, err
	}

	rules := []struct {
		name string
		fn   ruleFunc
	}{
		{RuleInstantWelcome, e.runInstantWelcome},
		{RuleNoResponseFollowup, e.runNoResponseFollowup},
		{RuleQuoteFollowup, e.runQuoteFollowup},
		{RuleAppointmentReminder, e.runAppointmentReminder},
		{RuleReviewRequest, e.runReviewRequest},
		{RuleColdReengagement, e.runColdReengagement},
	}

	summaries := make([]RuleSummary, len(rules))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, rule := range rules {
		if !active[rule.name] {
			summaries[i] = RuleSummary{Rule: rule.name, Active: false}
			continue
		}
		group.Go(func() error {
			summary, err := rule.fn(groupCtx, now)
			if err != nil {
				return err
			}
			summary.Active = true
			summaries[i] = summary
			e.log.AutomationRun(summary.Rule, summary.Candidates, summary.Failed)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return Summary{}, err
	}

	out := Summary{RanAt: now, Rules: summaries, Actions: []Action{}}
	for _, rs := range summaries {
		out.Actions = append(out.Actions, rs.actions...)
	}
	return out, nil
}

func (e *Evaluator) runInstantWelcome(ctx context.Context, now time.Time) (RuleSummary, error) {
	summary := RuleSummary{Rule: RuleInstantWelcome}

	candidates, err := e.store.WelcomeCandidates(ctx, RuleInstantWelcome, now, welcomeWindow)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, c := range candidates {
		mc := notify.NewMessageContext(c.Name, c.Service)

		results := e.dispatcher.Dispatch(ctx, notify.Request{
			LeadID:          c.LeadID,
			Phone:           c.Phone,
			SMSBody:         notify.WelcomeSMS(mc),
			CountsAsContact: true,
		})
		e.recordResults(ctx, &summary, c.LeadID, RuleInstantWelcome, results)
	}
	return summary, nil
}

func (e *Evaluator) runNoResponseFollowup(ctx context.Context, now time.Time) (RuleSummary, error) {
	summary := RuleSummary{Rule: RuleNoResponseFollowup}

	candidates, err := e.store.StaleNewCandidates(ctx, RuleNoResponseFollowup, now, followupWindow)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, c := range candidates {
		// Conditional write is the claim: if staff contacted the lead
		// between selection and now, back off entirely.
		claimed, err := e.store.DecrementScoreIfUncontacted(ctx, c.LeadID, staleScorePenalty)
		if err != nil {
			e.recordClaimFailure(&summary, c.LeadID, RuleNoResponseFollowup, err)
			continue
		}
		if !claimed {
			summary.Skipped++
			continue
		}

		mc := notify.NewMessageContext(c.Name, c.Service)
		results := e.dispatcher.Dispatch(ctx, notify.Request{
			LeadID:  c.LeadID,
			Phone:   c.Phone,
			SMSBody: notify.FollowupSMS(mc),
		})
		e.recordResults(ctx, &summary, c.LeadID, RuleNoResponseFollowup, results)

		if e.adminPhone != "" {
			alert := mc
			alert.Score = max(c.Score-staleScorePenalty, 0)
			alert.Priority = c.Priority
			for _, r := range e.dispatcher.Dispatch(ctx, notify.Request{
				Phone:   e.adminPhone,
				SMSBody: notify.AdminStaleLeadSMS(alert),
			}) {
				if r.Err != nil {
					e.log.Error("stale lead alert failed", "leadId", c.LeadID, "error", r.Err)
				}
			}
		}
	}
	return summary, nil
}

func (e *Evaluator) runQuoteFollowup(ctx context.Context, now time.Time) (RuleSummary, error) {
	summary := RuleSummary{Rule: RuleQuoteFollowup}

	candidates, err := e.store.QuoteFollowupCandidates(ctx, RuleQuoteFollowup, now, quoteWindow)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, c := range candidates {
		mc := notify.NewMessageContext(c.Name, c.Service)
		if c.QuoteAmount != nil {
			mc.QuoteAmount = *c.QuoteAmount
		}

		subject, body, err := notify.QuoteFollowupEmail(mc)
		if err != nil {
			e.log.Error("quote email render failed", "leadId", c.LeadID, "error", err)
		}

		results := e.dispatcher.Dispatch(ctx, notify.Request{
			LeadID:       c.LeadID,
			Phone:        c.Phone,
			Email:        deref(c.Email),
			SMSBody:      notify.QuoteFollowupSMS(mc),
			EmailSubject: subject,
			EmailBody:    body,
		})
		e.recordResults(ctx, &summary, c.LeadID, RuleQuoteFollowup, results)
	}
	return summary, nil
}

func (e *Evaluator) runAppointmentReminder(ctx context.Context, now time.Time) (RuleSummary, error) {
	summary := RuleSummary{Rule: RuleAppointmentReminder}

	candidates, err := e.store.AppointmentReminderCandidates(ctx, RuleAppointmentReminder, now, reminderLower, reminderUpper)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, c := range candidates {
		mc := notify.NewMessageContext(c.Name, c.Service)
		if c.AppointmentDate != nil {
			mc.AppointmentDate = *c.AppointmentDate
		}

		subject, body, err := notify.AppointmentReminderEmail(mc)
		if err != nil {
			e.log.Error("reminder email render failed", "leadId", c.LeadID, "error", err)
		}

		results := e.dispatcher.Dispatch(ctx, notify.Request{
			LeadID:       c.LeadID,
			Phone:        c.Phone,
			Email:        deref(c.Email),
			SMSBody:      notify.AppointmentReminderSMS(mc),
			EmailSubject: subject,
			EmailBody:    body,
		})
		e.recordResults(ctx, &summary, c.LeadID, RuleAppointmentReminder, results)
	}
	return summary, nil
}

func (e *Evaluator) runReviewRequest(ctx context.Context, now time.Time) (RuleSummary, error) {
	summary := RuleSummary{Rule: RuleReviewRequest}

	candidates, err := e.store.ReviewRequestCandidates(ctx, RuleReviewRequest, now, reviewWindow)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, c := range candidates {
		// The flag flip is the single-fire guard: whichever run claims it
		// sends, everyone else skips.
		claimed, err := e.store.MarkReviewRequested(ctx, c.LeadID)
		if err != nil {
			e.recordClaimFailure(&summary, c.LeadID, RuleReviewRequest, err)
			continue
		}
		if !claimed {
			summary.Skipped++
			continue
		}

		mc := notify.NewMessageContext(c.Name, c.Service)
		mc.ReviewLink = e.reviewLink

		subject, body, err := notify.ReviewRequestEmail(mc)
		if err != nil {
			e.log.Error("review email render failed", "leadId", c.LeadID, "error", err)
		}

		results := e.dispatcher.Dispatch(ctx, notify.Request{
			LeadID:       c.LeadID,
			Phone:        c.Phone,
			Email:        deref(c.Email),
			SMSBody:      notify.ReviewRequestSMS(mc),
			EmailSubject: subject,
			EmailBody:    body,
		})
		e.recordResults(ctx, &summary, c.LeadID, RuleReviewRequest, results)
	}
	return summary, nil
}

func (e *Evaluator) runColdReengagement(ctx context.Context, now time.Time) (RuleSummary, error) {
	summary := RuleSummary{Rule: RuleColdReengagement}

	candidates, err := e.store.ColdCandidates(ctx, RuleColdReengagement, now, coldWindow)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, c := range candidates {
		claimed, err := e.store.MarkReEngaged(ctx, c.LeadID)
		if err != nil {
			e.recordClaimFailure(&summary, c.LeadID, RuleColdReengagement, err)
			continue
		}
		if !claimed {
			summary.Skipped++
			continue
		}

		mc := notify.NewMessageContext(c.Name, c.Service)

		subject, body, err := notify.ReengagementEmail(mc)
		if err != nil {
			e.log.Error("reengagement email render failed", "leadId", c.LeadID, "error", err)
		}

		results := e.dispatcher.Dispatch(ctx, notify.Request{
			LeadID:       c.LeadID,
			Email:        deref(c.Email),
			EmailSubject: subject,
			EmailBody:    body,
		})
		e.recordResults(ctx, &summary, c.LeadID, RuleColdReengagement, results)
	}
	return summary, nil
}

// recordResults writes one automation_logs row per attempted channel and
// folds the outcomes into the rule summary. Log write failures are logged
// and swallowed: a broken audit trail must not halt outreach.
func (e *Evaluator) recordResults(ctx context.Context, summary *RuleSummary, leadID uuid.UUID, rule string, results []notify.ChannelResult) {
	for _, r := range results {
		entry := repository.LogEntry{
			LeadID:  leadID,
			Rule:    rule,
			Channel: r.Channel,
		}
		action := Action{LeadID: leadID, Rule: rule, Channel: r.Channel}
		switch {
		case r.Sent:
			entry.Status = repository.LogStatusSent
			summary.Sent++
		case r.Skipped:
			entry.Status = repository.LogStatusSkipped
			summary.Skipped++
		default:
			entry.Status = repository.LogStatusFailed
			summary.Failed++
			if r.Err != nil {
				detail := r.Err.Error()
				entry.Detail = &detail
				action.Detail = detail
			}
		}
		action.Status = entry.Status
		summary.actions = append(summary.actions, action)
		if err := e.store.LogAutomation(ctx, entry); err != nil {
			e.log.DatabaseError("automation.log", err)
		}
	}
}

// recordClaimFailure marks a lead whose conditional update errored and keeps
// the rule moving. One broken lead row must not abort the rest of the pass.
func (e *Evaluator) recordClaimFailure(summary *RuleSummary, leadID uuid.UUID, rule string, err error) {
	e.log.DatabaseError("automation.claim", err)
	summary.Failed++
	summary.actions = append(summary.actions, Action{
		LeadID: leadID,
		Rule:   rule,
		Status: repository.LogStatusFailed,
		Detail: err.Error(),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
