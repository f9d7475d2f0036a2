package share

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTwilioBaseURL is the Twilio REST endpoint.
const DefaultTwilioBaseURL = "https://api.twilio.com"

// Twilio sends SMS through the Twilio Messages API.
type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
}

type twilioMessage struct {
	SID         string `json:"sid"`
	DateCreated string `json:"date_created"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts body to the destination number and returns the creation time
// reported by Twilio.
func (t *Twilio) Send(ctx context.Context, to, body string) (time.Time, error) {
	base := t.BaseURL
	if base == "" {
		base = DefaultTwilioBaseURL
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(base, "/"), url.PathEscape(t.AccountSID))
	form := url.Values{"From": {t.From}, "To": {to}, "Body": {body}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return time.Time{}, fmt.Errorf("twilio: build request: %w", err)
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("twilio: send: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return time.Time{}, fmt.Errorf("twilio: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e twilioError
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return time.Time{}, fmt.Errorf("twilio: %s (code %d, status %d)", e.Message, e.Code, resp.StatusCode)
		}
		return time.Time{}, fmt.Errorf("twilio: unexpected status %d", resp.StatusCode)
	}

	var msg twilioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return time.Time{}, fmt.Errorf("twilio: decode response: %w", err)
	}
	created, err := time.Parse(time.RFC1123Z, msg.DateCreated)
	if err != nil {
		return time.Now(), nil
	}
	return created, nil
}
