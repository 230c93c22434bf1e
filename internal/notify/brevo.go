package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// BrevoSender sends transactional email through the Brevo HTTP API.
type BrevoSender struct {
	apiKey      string
	fromName    string
	fromAddress string
	endpoint    string
	http        *http.Client
	log         *logger.Logger
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func NewBrevoSender(cfg config.EmailConfig, log *logger.Logger) *BrevoSender {
	if cfg.GetBrevoAPIKey() == "" {
		return nil
	}
	return &BrevoSender{
		apiKey:      cfg.GetBrevoAPIKey(),
		fromName:    cfg.GetEmailFromName(),
		fromAddress: cfg.GetEmailFromAddress(),
		endpoint:    brevoAPIURL,
		http:        &http.Client{Timeout: 15 * time.Second},
		log:         log,
	}
}

func (c *BrevoSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	payload := brevoPayload{
		Sender:      brevoAddress{Name: c.fromName, Email: c.fromAddress},
		To:          []brevoAddress{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal brevo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("email sent via brevo", "to", to, "subject", subject)
	return nil
}
