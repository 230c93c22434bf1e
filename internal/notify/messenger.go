// Package notify delivers outbound SMS and email for the automation
// evaluator and the submission pipeline. Senders are best-effort: a failed
// channel is reported in the dispatch result, never as a returned error.
package notify

import "context"

// SMSSender delivers one text message to an E.164 recipient.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// ErrChannelDisabled is returned by the noop senders so dispatch results can
// distinguish "not configured" from a real delivery failure.
type channelDisabledError struct{ channel string }

func (e channelDisabledError) Error() string { return e.channel + " channel not configured" }

// IsChannelDisabled reports whether err means the channel was never set up.
func IsChannelDisabled(err error) bool {
	_, ok := err.(channelDisabledError)
	return ok
}

// NoopSMSSender stands in when Twilio credentials are absent, so callers
// never nil-check the sender.
type NoopSMSSender struct{}

func (NoopSMSSender) SendSMS(ctx context.Context, to, body string) error {
	return channelDisabledError{channel: "sms"}
}

// NoopEmailSender stands in when neither Brevo nor SMTP is configured.
type NoopEmailSender struct{}

func (NoopEmailSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	return channelDisabledError{channel: "email"}
}
