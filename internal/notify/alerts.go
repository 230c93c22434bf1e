package notify

import (
	"context"

	appevents "github.com/realnickp/BackyardBobbys-sub000/internal/events"
	"github.com/realnickp/BackyardBobbys-sub000/internal/leads/scoring"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

// LeadAlerts reacts to freshly created leads: the visitor gets their welcome
// text right away, and the owner gets paged when the lead scores hot. It
// subscribes to domain events rather than sitting in the submission path, so
// a slow Twilio call never delays the visitor's response.
type LeadAlerts struct {
	dispatcher *Dispatcher
	adminPhone string
	log        *logger.Logger
}

func NewLeadAlerts(dispatcher *Dispatcher, adminPhone string, log *logger.Logger) *LeadAlerts {
	return &LeadAlerts{dispatcher: dispatcher, adminPhone: adminPhone, log: log}
}

// RegisterHandlers subscribes the alert handlers on the event bus.
func (a *LeadAlerts) RegisterHandlers(bus appevents.Bus) {
	bus.Subscribe(appevents.TopicLeadCreated, appevents.HandlerFunc(a.handleLeadCreated))
}

func (a *LeadAlerts) handleLeadCreated(ctx context.Context, event appevents.Event) error {
	created, ok := event.(appevents.LeadCreated)
	if !ok {
		return nil
	}

	mc := NewMessageContext(created.Name, created.Service)
	mc.Score = created.Score
	mc.Priority = created.Priority

	// Welcome text first. A successful send stamps first_contact_at, which
	// keeps the evaluator's catch-up rule from re-welcoming the lead.
	if created.Phone != "" {
		for _, r := range a.dispatcher.Dispatch(ctx, Request{
			LeadID:          created.LeadID,
			Phone:           created.Phone,
			SMSBody:         WelcomeSMS(mc),
			CountsAsContact: true,
		}) {
			if r.Err != nil {
				a.log.Error("welcome message failed", "leadId", created.LeadID, "error", r.Err)
			}
		}
	}

	if a.adminPhone == "" || created.Priority != string(scoring.PriorityHot) {
		return nil
	}

	for _, r := range a.dispatcher.Dispatch(ctx, Request{
		Phone:   a.adminPhone,
		SMSBody: AdminHotLeadSMS(mc),
	}) {
		if r.Err != nil {
			a.log.Error("hot lead alert failed", "leadId", created.LeadID, "error", r.Err)
			return r.Err
		}
		if r.Sent {
			a.log.Info("hot lead alert sent", "leadId", created.LeadID, "score", created.Score)
		}
	}
	return nil
}
