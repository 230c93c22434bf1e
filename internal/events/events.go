package events

import (
	"github.com/google/uuid"

	"github.com/realnickp/BackyardBobbys-sub000/platform/events"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

// Re-exported so modules depend on one events package.
type (
	Event       = events.Event
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	Bus         = events.Bus
	BaseEvent   = events.BaseEvent
)

func NewInMemoryBus(log *logger.Logger) *events.InMemoryBus { return events.NewInMemoryBus(log) }

const (
	TopicLeadCreated       = "lead.created"
	TopicLeadStatusChanged = "lead.status_changed"
)

// LeadCreated fires after a lead row is durably persisted. Handlers must not
// assume the submitter is still waiting on the HTTP response.
type LeadCreated struct {
	events.BaseEvent
	LeadID   uuid.UUID
	Name     string
	Phone    string
	Service  string
	Score    int
	Priority string
}

func (LeadCreated) EventName() string { return TopicLeadCreated }

func NewLeadCreated(leadID uuid.UUID, name, phone, service string, score int, priority string) LeadCreated {
	return LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Name:      name,
		Phone:     phone,
		Service:   service,
		Score:     score,
		Priority:  priority,
	}
}

type LeadStatusChanged struct {
	events.BaseEvent
	LeadID    uuid.UUID
	OldStatus string
	NewStatus string
}

func (LeadStatusChanged) EventName() string { return TopicLeadStatusChanged }

func NewLeadStatusChanged(leadID uuid.UUID, oldStatus, newStatus string) LeadStatusChanged {
	return LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
}
