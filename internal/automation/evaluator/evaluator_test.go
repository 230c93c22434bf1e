package evaluator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/repository"
	"github.com/realnickp/BackyardBobbys-sub000/internal/notify"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

// fakeStore mimics the repository's query-then-claim behavior in memory.
type fakeStore struct {
	active map[string]bool

	welcome      []repository.Candidate
	staleNew     []repository.Candidate
	quote        []repository.Candidate
	appointments []repository.Candidate
	reviews      []repository.Candidate
	cold         []repository.Candidate

	// contacted simulates staff racing the evaluator: claims fail for these.
	contacted map[uuid.UUID]bool
	// reviewDone holds leads whose review flag is already set.
	reviewDone map[uuid.UUID]bool
	// claimErr makes every conditional update for the lead return an error.
	claimErr map[uuid.UUID]error

	scores    map[uuid.UUID]int
	reEngaged []uuid.UUID
	logs      []repository.LogEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		active: map[string]bool{
			RuleInstantWelcome:      true,
			RuleNoResponseFollowup:  true,
			RuleQuoteFollowup:       true,
			RuleAppointmentReminder: true,
			RuleReviewRequest:       true,
			RuleColdReengagement:    true,
		},
		contacted:  map[uuid.UUID]bool{},
		reviewDone: map[uuid.UUID]bool{},
		claimErr:   map[uuid.UUID]error{},
		scores:     map[uuid.UUID]int{},
	}
}

func (f *fakeStore) ActiveRules(context.Context) (map[string]bool, error) {
	return f.active, nil
}

// dedupe mirrors the repository's NOT EXISTS clause on automation_logs.
func (f *fakeStore) dedupe(rule string, candidates []repository.Candidate) []repository.Candidate {
	out := make([]repository.Candidate, 0, len(candidates))
	for _, c := range candidates {
		seen := false
		for _, l := range f.logs {
			if l.LeadID == c.LeadID && l.Rule == rule {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) WelcomeCandidates(_ context.Context, rule string, _ time.Time, _ time.Duration) ([]repository.Candidate, error) {
	return f.dedupe(rule, f.welcome), nil
}

func (f *fakeStore) StaleNewCandidates(_ context.Context, rule string, _ time.Time, _ time.Duration) ([]repository.Candidate, error) {
	return f.dedupe(rule, f.staleNew), nil
}

func (f *fakeStore) QuoteFollowupCandidates(_ context.Context, rule string, _ time.Time, _ time.Duration) ([]repository.Candidate, error) {
	return f.dedupe(rule, f.quote), nil
}

func (f *fakeStore) AppointmentReminderCandidates(_ context.Context, rule string, _ time.Time, _, _ time.Duration) ([]repository.Candidate, error) {
	return f.dedupe(rule, f.appointments), nil
}

func (f *fakeStore) ReviewRequestCandidates(_ context.Context, rule string, _ time.Time, _ time.Duration) ([]repository.Candidate, error) {
	return f.dedupe(rule, f.reviews), nil
}

func (f *fakeStore) ColdCandidates(_ context.Context, rule string, _ time.Time, _ time.Duration) ([]repository.Candidate, error) {
	return f.dedupe(rule, f.cold), nil
}

func (f *fakeStore) DecrementScoreIfUncontacted(_ context.Context, id uuid.UUID, points int) (bool, error) {
	if err := f.claimErr[id]; err != nil {
		return false, err
	}
	if f.contacted[id] {
		return false, nil
	}
	score := f.scores[id] - points
	if score < 0 {
		score = 0
	}
	f.scores[id] = score
	return true, nil
}

func (f *fakeStore) MarkReviewRequested(_ context.Context, id uuid.UUID) (bool, error) {
	if err := f.claimErr[id]; err != nil {
		return false, err
	}
	if f.reviewDone[id] {
		return false, nil
	}
	f.reviewDone[id] = true
	return true, nil
}

func (f *fakeStore) MarkReEngaged(_ context.Context, id uuid.UUID) (bool, error) {
	if err := f.claimErr[id]; err != nil {
		return false, err
	}
	if f.contacted[id] {
		return false, nil
	}
	f.reEngaged = append(f.reEngaged, id)
	return true, nil
}

func (f *fakeStore) LogAutomation(_ context.Context, entry repository.LogEntry) error {
	f.logs = append(f.logs, entry)
	return nil
}

type fakeDispatcher struct {
	requests []notify.Request
	// failFor returns an error result for the SMS channel of these numbers.
	failFor map[string]error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req notify.Request) []notify.ChannelResult {
	f.requests = append(f.requests, req)
	results := make([]notify.ChannelResult, 0, 2)
	if req.SMSBody != "" && req.Phone != "" {
		if err := f.failFor[req.Phone]; err != nil {
			results = append(results, notify.ChannelResult{Channel: notify.ChannelSMS, Err: err})
		} else {
			results = append(results, notify.ChannelResult{Channel: notify.ChannelSMS, Sent: true})
		}
	}
	if req.EmailSubject != "" && req.Email != "" {
		results = append(results, notify.ChannelResult{Channel: notify.ChannelEmail, Sent: true})
	}
	return results
}

func candidate(name string) repository.Candidate {
	email := name + "@example.com"
	return repository.Candidate{
		LeadID:  uuid.New(),
		Name:    name,
		Phone:   "+15551230000",
		Email:   &email,
		Service: "deck",
		Score:   55,
	}
}

func newTestEvaluator(store *fakeStore, dispatcher *fakeDispatcher) *Evaluator {
	return New(store, dispatcher, logger.New("test"), "+15559990000", "https://g.page/review")
}

func ruleSummary(t *testing.T, summary Summary, rule string) RuleSummary {
	t.Helper()
	for _, rs := range summary.Rules {
		if rs.Rule == rule {
			return rs
		}
	}
	t.Fatalf("no summary for rule %s", rule)
	return RuleSummary{}
}

func TestRun_WelcomeFiresOncePerLead(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	store.welcome = []repository.Candidate{candidate("Maria Lopez")}

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	welcome := ruleSummary(t, summary, RuleInstantWelcome)
	if welcome.Candidates != 1 || welcome.Sent != 1 {
		t.Fatalf("expected 1 candidate with one sms sent, got %+v", welcome)
	}

	// Second run: the log rows from the first pass exclude the lead.
	dispatcher.requests = nil
	summary, err = e.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	welcome = ruleSummary(t, summary, RuleInstantWelcome)
	if welcome.Candidates != 0 {
		t.Fatalf("expected no candidates on re-run, got %+v", welcome)
	}
	if len(dispatcher.requests) != 0 {
		t.Fatalf("expected no sends on re-run, got %d", len(dispatcher.requests))
	}
}

func TestRun_WelcomeIsSMSOnlyAndStampsFirstContact(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	store.welcome = []repository.Candidate{candidate("Tess Boyd")}

	e := newTestEvaluator(store, dispatcher)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(dispatcher.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(dispatcher.requests))
	}
	req := dispatcher.requests[0]
	if req.EmailSubject != "" || req.EmailBody != "" {
		t.Fatalf("welcome must not attempt email, got subject %q", req.EmailSubject)
	}
	if req.SMSBody == "" {
		t.Fatal("welcome sms body missing")
	}
	if !req.CountsAsContact {
		t.Fatal("welcome send must stamp first contact")
	}
}

func TestRun_StaleLeadFollowupDecrementsAndAlertsAdmin(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	c := candidate("Dan Webb")
	c.Score = 3
	store.staleNew = []repository.Candidate{c}
	store.scores[c.LeadID] = 3

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	followup := ruleSummary(t, summary, RuleNoResponseFollowup)
	if followup.Candidates != 1 || followup.Sent != 1 {
		t.Fatalf("expected one follow-up sms, got %+v", followup)
	}

	// Score decrements floor at zero.
	if store.scores[c.LeadID] != 0 {
		t.Fatalf("expected score floored at 0, got %d", store.scores[c.LeadID])
	}

	// Exactly one request went to the lead and one to the admin number.
	var leadSends, adminSends int
	for _, req := range dispatcher.requests {
		switch req.Phone {
		case c.Phone:
			leadSends++
		case "+15559990000":
			adminSends++
			if req.LeadID != uuid.Nil {
				t.Fatalf("admin alert must not carry a lead id")
			}
		}
	}
	if leadSends != 1 || adminSends != 1 {
		t.Fatalf("expected 1 lead send and 1 admin alert, got %d/%d", leadSends, adminSends)
	}
}

func TestRun_AdminAlertFailureIsLogged(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{failFor: map[string]error{
		"+15559990000": errors.New("gateway down"),
	}}
	c := candidate("Ivy Chan")
	store.staleNew = []repository.Candidate{c}
	store.scores[c.LeadID] = 40

	var buf bytes.Buffer
	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	e := New(store, dispatcher, log, "+15559990000", "")

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// The lead's own follow-up still counts as sent.
	followup := ruleSummary(t, summary, RuleNoResponseFollowup)
	if followup.Sent != 1 {
		t.Fatalf("expected lead follow-up sent, got %+v", followup)
	}
	if !strings.Contains(buf.String(), "stale lead alert failed") {
		t.Fatalf("expected alert failure in log, got %q", buf.String())
	}
}

func TestRun_FollowupBacksOffWhenContactRaces(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	c := candidate("Priya Nair")
	store.staleNew = []repository.Candidate{c}
	store.contacted[c.LeadID] = true

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	followup := ruleSummary(t, summary, RuleNoResponseFollowup)
	if followup.Sent != 0 || followup.Skipped != 1 {
		t.Fatalf("expected skip when contact raced the claim, got %+v", followup)
	}
	if len(dispatcher.requests) != 0 {
		t.Fatalf("no messages should go out after a lost claim")
	}
}

func TestRun_ClaimErrorSkipsLeadNotRun(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	broken := candidate("Gus Field")
	healthy := candidate("Rosa Diaz")
	store.staleNew = []repository.Candidate{broken, healthy}
	store.claimErr[broken.LeadID] = errors.New("connection reset")

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("one bad row must not fail the run: %v", err)
	}
	followup := ruleSummary(t, summary, RuleNoResponseFollowup)
	if followup.Failed != 1 || followup.Sent != 1 {
		t.Fatalf("expected failed=1 sent=1, got %+v", followup)
	}

	// The healthy lead still got its follow-up.
	var healthySent bool
	for _, req := range dispatcher.requests {
		if req.LeadID == healthy.LeadID {
			healthySent = true
		}
		if req.LeadID == broken.LeadID {
			t.Fatal("no message may go out after an errored claim")
		}
	}
	if !healthySent {
		t.Fatal("healthy lead was not processed")
	}

	// The failure shows up in the flat action log.
	var found bool
	for _, a := range summary.Actions {
		if a.LeadID == broken.LeadID && a.Status == repository.LogStatusFailed && a.Detail == "connection reset" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a failed action for the broken lead, got %+v", summary.Actions)
	}
}

func TestRun_AppointmentReminderSendsSMSAndEmail(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	c := candidate("Omar Reyes")
	visit := time.Now().Add(24 * time.Hour)
	c.AppointmentDate = &visit
	store.appointments = []repository.Candidate{c}

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	reminder := ruleSummary(t, summary, RuleAppointmentReminder)
	if reminder.Sent != 2 {
		t.Fatalf("expected sms+email reminder, got %+v", reminder)
	}
	req := dispatcher.requests[0]
	if req.SMSBody == "" || req.EmailSubject == "" || req.EmailBody == "" {
		t.Fatalf("reminder must carry both channels, got %+v", req)
	}
	if req.Email != *c.Email {
		t.Fatalf("expected email to %s, got %s", *c.Email, req.Email)
	}
}

func TestRun_ReviewRequestIsSingleFire(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	c := candidate("Sam Ortiz")
	store.reviews = []repository.Candidate{c}
	store.reviewDone[c.LeadID] = true

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	review := ruleSummary(t, summary, RuleReviewRequest)
	if review.Sent != 0 || review.Skipped != 1 {
		t.Fatalf("expected skip when the flag was already claimed, got %+v", review)
	}
}

func TestRun_ReviewRequestIncludesLink(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	store.reviews = []repository.Candidate{candidate("Joy Kim")}

	e := newTestEvaluator(store, dispatcher)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(dispatcher.requests) != 1 {
		t.Fatalf("expected one review request, got %d", len(dispatcher.requests))
	}
	if want := "https://g.page/review"; !strings.Contains(dispatcher.requests[0].SMSBody, want) {
		t.Fatalf("review sms should carry the link, got %q", dispatcher.requests[0].SMSBody)
	}
}

func TestRun_ColdReengagementIsEmailOnly(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	c := candidate("Al Greene")
	store.cold = []repository.Candidate{c}

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	cold := ruleSummary(t, summary, RuleColdReengagement)
	if cold.Sent != 1 {
		t.Fatalf("expected a single email reengagement, got %+v", cold)
	}
	req := dispatcher.requests[0]
	if req.SMSBody != "" || req.Phone != "" {
		t.Fatalf("cold reengagement must not attempt sms, got %+v", req)
	}
	if req.EmailSubject == "" || req.Email != *c.Email {
		t.Fatalf("expected reengagement email to %s, got %+v", *c.Email, req)
	}
	if len(store.reEngaged) != 1 || store.reEngaged[0] != c.LeadID {
		t.Fatalf("expected lead marked re_engaged, got %v", store.reEngaged)
	}
}

func TestRun_InactiveRuleIsSkippedEntirely(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	store.active[RuleInstantWelcome] = false
	store.welcome = []repository.Candidate{candidate("Eve Shaw")}

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	welcome := ruleSummary(t, summary, RuleInstantWelcome)
	if welcome.Active || welcome.Candidates != 0 {
		t.Fatalf("inactive rule must not evaluate, got %+v", welcome)
	}
	if len(dispatcher.requests) != 0 {
		t.Fatalf("inactive rule must not send")
	}
}

func TestRun_LogsEveryChannelAttempt(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	store.reviews = []repository.Candidate{candidate("Nina Park")}

	e := newTestEvaluator(store, dispatcher)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.logs) != 2 {
		t.Fatalf("expected one log row per channel, got %d", len(store.logs))
	}
	for _, entry := range store.logs {
		if entry.Rule != RuleReviewRequest || entry.Status != repository.LogStatusSent {
			t.Fatalf("unexpected log entry %+v", entry)
		}
	}
}

func TestRun_SummaryCarriesActionLog(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	welcome := candidate("Lena Wolf")
	review := candidate("Hugo Marsh")
	store.welcome = []repository.Candidate{welcome}
	store.reviews = []repository.Candidate{review}

	e := newTestEvaluator(store, dispatcher)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// One sms action for the welcome, sms+email for the review request.
	if len(summary.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %+v", summary.Actions)
	}
	byLead := map[uuid.UUID]int{}
	for _, a := range summary.Actions {
		if a.Status != repository.LogStatusSent {
			t.Fatalf("expected all sent, got %+v", a)
		}
		byLead[a.LeadID]++
	}
	if byLead[welcome.LeadID] != 1 || byLead[review.LeadID] != 2 {
		t.Fatalf("unexpected per-lead action counts: %v", byLead)
	}
}

func TestRun_FixedClock(t *testing.T) {
	store := newFakeStore()
	frozen := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	e := New(store, &fakeDispatcher{}, logger.New("test"), "", "",
		WithClock(func() time.Time { return frozen }))

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.RanAt.Equal(frozen) {
		t.Fatalf("expected RanAt %v, got %v", frozen, summary.RanAt)
	}
}
