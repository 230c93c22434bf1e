package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
	"github.com/realnickp/BackyardBobbys-sub000/platform/logger"
	"github.com/realnickp/BackyardBobbys-sub000/platform/phone"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
	log        *logger.Logger
}

// NewTwilioSender returns nil when SMS is not configured; callers should
// fall back to NoopSMSSender.
func NewTwilioSender(cfg config.SMSConfig, log *logger.Logger) *TwilioSender {
	if !cfg.IsSMSEnabled() {
		return nil
	}
	return &TwilioSender{
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		from:       cfg.GetTwilioFromNumber(),
		baseURL:    twilioAPIBase,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (c *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	normalized := phone.NormalizeE164(to)
	if normalized == "" {
		return fmt.Errorf("sms: empty recipient")
	}

	form := url.Values{}
	form.Set("To", normalized)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("sms sent", "to", normalized)
	return nil
}
