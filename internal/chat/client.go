// Package chat runs the public "Ask Bobby" assistant: small talk about
// services plus structured extraction that turns a conversation into a lead.
package chat

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
)

// Client wraps the Gemini API behind the narrow surface the service needs.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient returns nil when chat is not configured; the service degrades to
// canned replies.
func NewClient(ctx context.Context, cfg config.ChatConfig) (*Client, error) {
	if !cfg.IsChatEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("chat client: %w", err)
	}

	model := cfg.GetChatModel()
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{client: client, model: model}, nil
}

// Generate produces one completion for the given system prompt and
// conversation turns. jsonOnly constrains the model to a JSON response.
func (c *Client) Generate(ctx context.Context, system string, turns []Turn, jsonOnly bool) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	}
	if jsonOnly {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.Temperature = genai.Ptr[float32](0.1)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("chat generate: %w", err)
	}
	return resp.Text(), nil
}
