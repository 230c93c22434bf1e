package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

func TestReply_DegradesToCannedWithoutClient(t *testing.T) {
	svc := NewService(nil, logger.New("test"))

	reply := svc.Reply(context.Background(), []Turn{{Role: RoleUser, Text: "how much is a deck?"}})
	if reply != cannedReply {
		t.Fatalf("expected canned reply, got %q", reply)
	}
	if svc.Enabled() {
		t.Fatalf("service without client must report disabled")
	}
}

func TestExtract_ZeroValueWithoutClient(t *testing.T) {
	svc := NewService(nil, logger.New("test"))
	if got := svc.Extract(context.Background(), nil); got != (Extraction{}) {
		t.Fatalf("expected zero extraction, got %+v", got)
	}
}

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Extraction
	}{
		{
			name: "plain json",
			raw:  `{"name":"Maria Lopez","phone":"555-123-0000","service":"deck","qualified":true}`,
			want: Extraction{Name: "Maria Lopez", Phone: "555-123-0000", Service: "deck", Qualified: true},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"name\":\"Dan\",\"service\":\"fence\"}\n```",
			want: Extraction{Name: "Dan", Service: "fence"},
		},
		{
			name: "empty response",
			raw:  "",
			want: Extraction{},
		},
		{
			name: "not json at all",
			raw:  "I could not find any details.",
			want: Extraction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseExtraction(tt.raw); got != tt.want {
				t.Fatalf("parseExtraction(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTranscriptText(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hello! what are we building?"},
	}
	got := TranscriptText(turns)
	if !strings.Contains(got, "user: hi") || !strings.Contains(got, "assistant: hello") {
		t.Fatalf("unexpected transcript %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("expected one separator, got %q", got)
	}
}
