package chat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in the visitor's conversation.
type Turn struct {
	Role string `json:"role" validate:"required,oneof=user assistant"`
	Text string `json:"text" validate:"required,max=2000"`
}

const replySystemPrompt = `You are Bobby, the friendly owner of Backyard Bobby's, a backyard
construction company building decks, pergolas, patios, fences, outdoor kitchens and
landscaping. Answer questions about services, process, rough timelines and what affects
pricing. Never promise exact prices. Keep replies under 80 words, warm and plain-spoken.
When the visitor seems ready, invite them to share their name and phone number so Bobby
can follow up with a real quote.`

const extractSystemPrompt = `Extract lead details from the conversation. Respond with only a JSON
object with these keys (omit or null any you cannot find): name, phone, email, service
(one of deck, pergola, patio, fence, outdoor_kitchen, landscaping, other), description,
budget, timeframe. Set "qualified" to true only if the visitor gave a name, a phone
number, and a concrete project.`

// cannedReply is served when no LLM is configured. The chat widget stays
// useful as a plain contact prompt.
const cannedReply = `Thanks for reaching out! Bobby isn't at the keyboard right now. Leave your name and phone number here, or use the quote form, and we'll get back to you within one business day.`

// Extraction is the structured lead data pulled from a conversation.
type Extraction struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Budget      string `json:"budget"`
	Timeframe   string `json:"timeframe"`
	Qualified   bool   `json:"qualified"`
}

// Service answers visitor messages and extracts lead data. A nil client
// means chat degrades, it never errors out to the visitor.
type Service struct {
	client *Client
	log    *logger.Logger
}

func NewService(client *Client, log *logger.Logger) *Service {
	return &Service{client: client, log: log}
}

// Enabled reports whether a live model is behind the service.
func (s *Service) Enabled() bool {
	return s.client != nil
}

// Reply generates the assistant's next message. Model failures degrade to
// the canned reply; the visitor always gets an answer.
func (s *Service) Reply(ctx context.Context, turns []Turn) string {
	if s.client == nil {
		return cannedReply
	}

	reply, err := s.client.Generate(ctx, replySystemPrompt, turns, false)
	if err != nil {
		s.log.Error("chat reply failed", "error", err)
		return cannedReply
	}
	if strings.TrimSpace(reply) == "" {
		return cannedReply
	}
	return reply
}

// Extract pulls structured lead fields out of a conversation. Returns a zero
// Extraction (not an error) when the model is unavailable or returns
// something unparseable: submission falls back to whatever the visitor
// typed into the hand-off form.
func (s *Service) Extract(ctx context.Context, turns []Turn) Extraction {
	if s.client == nil {
		return Extraction{}
	}

	raw, err := s.client.Generate(ctx, extractSystemPrompt, turns, true)
	if err != nil {
		s.log.Error("chat extraction failed", "error", err)
		return Extraction{}
	}
	return parseExtraction(raw)
}

// parseExtraction tolerates the fenced-code wrapping some models add around
// JSON output.
func parseExtraction(raw string) Extraction {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out Extraction
	if cleaned == "" {
		return out
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return Extraction{}
	}
	return out
}

// TranscriptText flattens a conversation for storage on the lead.
func TranscriptText(turns []Turn) string {
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}
