package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/repository"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// CommunicationLog records what was actually sent against the lead timeline.
// Satisfied by the leads repository.
type CommunicationLog interface {
	CreateCommunication(ctx context.Context, params repository.CreateCommunicationParams) (repository.Communication, error)
	SetFirstContact(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Request describes one outbound notification. Channels without content
// (empty SMSBody, empty EmailSubject) are not attempted.
type Request struct {
	LeadID       uuid.UUID
	Phone        string
	Email        string
	SMSBody      string
	EmailSubject string
	EmailBody    string
	// CountsAsContact marks sends that should stamp first_contact_at.
	CountsAsContact bool
}

// ChannelResult reports the outcome of one channel attempt.
type ChannelResult struct {
	Channel string
	Sent    bool
	Skipped bool
	Err     error
}

// Dispatcher fans a Request out to every applicable channel and collects
// per-channel results. It never returns an error: a dead SMS gateway must
// not stop the email from going out, and neither may fail the caller.
type Dispatcher struct {
	sms   SMSSender
	email EmailSender
	comms CommunicationLog
	log   *logger.Logger
	now   func() time.Time
}

type DispatcherOption func(*Dispatcher)

// WithClock overrides the dispatcher's notion of now.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(sms SMSSender, email EmailSender, comms CommunicationLog, log *logger.Logger, opts ...DispatcherOption) *Dispatcher {
	if sms == nil {
		sms = NoopSMSSender{}
	}
	if email == nil {
		email = NoopEmailSender{}
	}
	d := &Dispatcher{sms: sms, email: email, comms: comms, log: log, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch attempts each channel in turn and returns one result per
// attempted channel. Results come back in a fixed order: SMS, then email.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) []ChannelResult {
	results := make([]ChannelResult, 0, 2)

	if req.SMSBody != "" && req.Phone != "" {
		results = append(results, d.attemptSMS(ctx, req))
	}
	if req.EmailSubject != "" && req.Email != "" {
		results = append(results, d.attemptEmail(ctx, req))
	}

	if anySent(results) && req.CountsAsContact && req.LeadID != uuid.Nil {
		if err := d.comms.SetFirstContact(ctx, req.LeadID, d.now()); err != nil {
			d.log.DatabaseError("notify.set_first_contact", err)
		}
	}

	return results
}

func (d *Dispatcher) attemptSMS(ctx context.Context, req Request) ChannelResult {
	err := d.sms.SendSMS(ctx, req.Phone, req.SMSBody)
	if IsChannelDisabled(err) {
		return ChannelResult{Channel: ChannelSMS, Skipped: true}
	}
	if err != nil {
		d.log.Error("sms send failed", "leadId", req.LeadID, "error", err)
		return ChannelResult{Channel: ChannelSMS, Err: err}
	}

	d.logCommunication(ctx, req.LeadID, ChannelSMS, req.SMSBody)
	return ChannelResult{Channel: ChannelSMS, Sent: true}
}

func (d *Dispatcher) attemptEmail(ctx context.Context, req Request) ChannelResult {
	err := d.email.SendEmail(ctx, req.Email, req.EmailSubject, req.EmailBody)
	if IsChannelDisabled(err) {
		return ChannelResult{Channel: ChannelEmail, Skipped: true}
	}
	if err != nil {
		d.log.Error("email send failed", "leadId", req.LeadID, "error", err)
		return ChannelResult{Channel: ChannelEmail, Err: err}
	}

	d.logCommunication(ctx, req.LeadID, ChannelEmail, req.EmailSubject)
	return ChannelResult{Channel: ChannelEmail, Sent: true}
}

func (d *Dispatcher) logCommunication(ctx context.Context, leadID uuid.UUID, channel, content string) {
	if leadID == uuid.Nil {
		// Admin alerts are not tied to a lead timeline.
		return
	}
	if _, err := d.comms.CreateCommunication(ctx, repository.CreateCommunicationParams{
		LeadID:    leadID,
		Type:      channel,
		Content:   content,
		Automated: true,
	}); err != nil {
		d.log.DatabaseError("notify.log_communication", err)
	}
}

func anySent(results []ChannelResult) bool {
	for _, r := range results {
		if r.Sent {
			return true
		}
	}
	return false
}
