package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	appevents "github.com/realnickp/BackyardBobbys-sub000/internal/events"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

func newTestAlerts(adminPhone string) (*LeadAlerts, *fakeSMS, *fakeCommLog) {
	sms := &fakeSMS{}
	comms := &fakeCommLog{}
	d := NewDispatcher(sms, &fakeEmail{}, comms, logger.New("test"))
	return NewLeadAlerts(d, adminPhone, logger.New("test")), sms, comms
}

func TestLeadCreated_SendsWelcomeAndStampsFirstContact(t *testing.T) {
	alerts, sms, comms := newTestAlerts("")

	leadID := uuid.New()
	event := appevents.NewLeadCreated(leadID, "Maria Lopez", "+15551230000", "deck", 55, "warm")

	if err := alerts.handleLeadCreated(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sms.sent) != 1 || sms.sent[0] != "+15551230000" {
		t.Fatalf("expected one welcome sms to the lead, got %v", sms.sent)
	}
	if len(comms.firstContact) != 1 || comms.firstContact[0] != leadID {
		t.Fatalf("welcome send must stamp first contact, got %v", comms.firstContact)
	}
	if len(comms.comms) != 1 || !strings.Contains(comms.comms[0].Content, "Maria") {
		t.Fatalf("expected the welcome logged on the timeline, got %+v", comms.comms)
	}
}

func TestLeadCreated_HotLeadPagesAdmin(t *testing.T) {
	alerts, sms, _ := newTestAlerts("+15559990000")

	event := appevents.NewLeadCreated(uuid.New(), "Dan Webb", "+15551230000", "pergola", 85, "hot")

	if err := alerts.handleLeadCreated(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Welcome to the lead, page to the owner.
	if len(sms.sent) != 2 || sms.sent[1] != "+15559990000" {
		t.Fatalf("expected welcome then admin page, got %v", sms.sent)
	}
}

func TestLeadCreated_WarmLeadDoesNotPageAdmin(t *testing.T) {
	alerts, sms, _ := newTestAlerts("+15559990000")

	event := appevents.NewLeadCreated(uuid.New(), "Joy Kim", "+15551230000", "fence", 50, "warm")

	if err := alerts.handleLeadCreated(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sms.sent) != 1 || sms.sent[0] != "+15551230000" {
		t.Fatalf("expected only the welcome sms, got %v", sms.sent)
	}
}

func TestLeadCreated_NoPhoneLeavesCatchupToEvaluator(t *testing.T) {
	alerts, sms, comms := newTestAlerts("")

	event := appevents.NewLeadCreated(uuid.New(), "Eve Shaw", "", "patio", 40, "warm")

	if err := alerts.handleLeadCreated(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sms.sent) != 0 || len(comms.firstContact) != 0 {
		t.Fatalf("no phone means nothing to send, got %v / %v", sms.sent, comms.firstContact)
	}
}
