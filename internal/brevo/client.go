package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const apiURL = "https://api.brevo.com/v3/smtp/email"

// Client sends transactional mail through the Brevo HTTP API.
type Client struct {
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient *http.Client
	configured bool
}

// NewClient builds a Brevo client. With incomplete credentials the client
// stays unconfigured and SendConfirmation reports an error instead of
// silently dropping mail.
func NewClient(apiKey, fromEmail, fromName string) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if apiKey != "" && fromEmail != "" && fromName != "" {
		c.apiKey = apiKey
		c.fromEmail = fromEmail
		c.fromName = fromName
		c.configured = true
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c.configured
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HtmlContent string              `json:"htmlContent"`
}

// SendConfirmation delivers the email-verification message carrying the
// confirmation link.
func (c *Client) SendConfirmation(ctx context.Context, toEmail, username, link string) error {
	if !c.configured {
		return fmt.Errorf("brevo client not configured, confirmation mail to %s skipped", toEmail)
	}

	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Please confirm your email address by following <a href="%s">this link</a>.</p><p>The link is valid for 24 hours.</p>`,
		username, link,
	)

	reqBody := sendEmailReq{
		Sender:      map[string]string{"email": c.fromEmail, "name": c.fromName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     "Confirm your email",
		HtmlContent: html,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create brevo request: %w", err)
	}
	httpReq.Header.Set("api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("brevo send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]interface{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errorBody); decodeErr != nil {
			return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("brevo API error: status %d, body: %v", resp.StatusCode, errorBody)
	}
	return nil
}
