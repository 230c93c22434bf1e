package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeCommLog struct {
	comms          []repository.CreateCommunicationParams
	firstContact   []uuid.UUID
	firstContactAt []time.Time
}

func (f *fakeCommLog) CreateCommunication(_ context.Context, params repository.CreateCommunicationParams) (repository.Communication, error) {
	f.comms = append(f.comms, params)
	return repository.Communication{ID: uuid.New(), LeadID: params.LeadID}, nil
}

func (f *fakeCommLog) SetFirstContact(_ context.Context, id uuid.UUID, at time.Time) error {
	f.firstContact = append(f.firstContact, id)
	f.firstContactAt = append(f.firstContactAt, at)
	return nil
}

func testRequest(leadID uuid.UUID) Request {
	return Request{
		LeadID:          leadID,
		Phone:           "+15551230000",
		Email:           "lead@example.com",
		SMSBody:         "hello",
		EmailSubject:    "hello",
		EmailBody:       "<p>hello</p>",
		CountsAsContact: true,
	}
}

func TestDispatch_BothChannelsSent(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	comms := &fakeCommLog{}
	d := NewDispatcher(sms, email, comms, logger.New("test"))

	leadID := uuid.New()
	results := d.Dispatch(context.Background(), testRequest(leadID))

	if len(results) != 2 {
		t.Fatalf("expected 2 channel results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Sent || r.Err != nil {
			t.Fatalf("channel %s: expected sent, got %+v", r.Channel, r)
		}
	}
	if len(comms.comms) != 2 {
		t.Fatalf("expected 2 logged communications, got %d", len(comms.comms))
	}
	for _, c := range comms.comms {
		if !c.Automated {
			t.Fatalf("expected automated communication, got %+v", c)
		}
	}
	if len(comms.firstContact) != 1 || comms.firstContact[0] != leadID {
		t.Fatalf("expected first contact stamped once for %s, got %v", leadID, comms.firstContact)
	}
}

func TestDispatch_SMSFailureDoesNotBlockEmail(t *testing.T) {
	sms := &fakeSMS{err: errors.New("gateway down")}
	email := &fakeEmail{}
	comms := &fakeCommLog{}
	d := NewDispatcher(sms, email, comms, logger.New("test"))

	results := d.Dispatch(context.Background(), testRequest(uuid.New()))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Channel != ChannelSMS || results[0].Err == nil {
		t.Fatalf("expected sms failure first, got %+v", results[0])
	}
	if results[1].Channel != ChannelEmail || !results[1].Sent {
		t.Fatalf("expected email still sent, got %+v", results[1])
	}
	if len(comms.comms) != 1 || comms.comms[0].Type != ChannelEmail {
		t.Fatalf("expected only the email logged, got %+v", comms.comms)
	}
}

func TestDispatch_UnconfiguredChannelsSkip(t *testing.T) {
	comms := &fakeCommLog{}
	d := NewDispatcher(nil, nil, comms, logger.New("test"))

	results := d.Dispatch(context.Background(), testRequest(uuid.New()))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Skipped || r.Err != nil {
			t.Fatalf("channel %s: expected skipped, got %+v", r.Channel, r)
		}
	}
	if len(comms.comms) != 0 || len(comms.firstContact) != 0 {
		t.Fatalf("expected no side effects for skipped channels")
	}
}

func TestDispatch_MissingContentSkipsChannel(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	d := NewDispatcher(sms, email, &fakeCommLog{}, logger.New("test"))

	req := testRequest(uuid.New())
	req.EmailSubject = ""
	results := d.Dispatch(context.Background(), req)

	if len(results) != 1 || results[0].Channel != ChannelSMS {
		t.Fatalf("expected only sms attempted, got %+v", results)
	}
	if len(email.sent) != 0 {
		t.Fatalf("email should not have been attempted")
	}
}

func TestDispatch_FirstContactUsesInjectedClock(t *testing.T) {
	comms := &fakeCommLog{}
	frozen := time.Date(2026, 5, 12, 8, 30, 0, 0, time.UTC)
	d := NewDispatcher(&fakeSMS{}, &fakeEmail{}, comms, logger.New("test"),
		WithClock(func() time.Time { return frozen }))

	d.Dispatch(context.Background(), testRequest(uuid.New()))

	if len(comms.firstContactAt) != 1 || !comms.firstContactAt[0].Equal(frozen) {
		t.Fatalf("expected first contact stamped at %v, got %v", frozen, comms.firstContactAt)
	}
}

func TestDispatch_AdminAlertHasNoLeadTimeline(t *testing.T) {
	sms := &fakeSMS{}
	comms := &fakeCommLog{}
	d := NewDispatcher(sms, NoopEmailSender{}, comms, logger.New("test"))

	results := d.Dispatch(context.Background(), Request{
		Phone:   "+15559990000",
		SMSBody: "hot lead",
	})

	if len(results) != 1 || !results[0].Sent {
		t.Fatalf("expected admin sms sent, got %+v", results)
	}
	if len(comms.comms) != 0 || len(comms.firstContact) != 0 {
		t.Fatalf("admin alert must not touch lead records")
	}
}
