package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendVerificationCode emails the 6-digit login code that completes the
// second step of sign-in.
func (c *Client) SendVerificationCode(toEmail, code string) error {
	textBody := fmt.Sprintf("Your Prayerwall sign-in code is %s.\n\nThis code expires in 15 minutes.", code)
	htmlBody := fmt.Sprintf(
		`<p>Your Prayerwall sign-in code is <strong>%s</strong>.</p><p>This code expires in 15 minutes.</p>`,
		code,
	)
	return c.send(toEmail, "Your Prayerwall sign-in code", htmlBody, textBody)
}

// SendReminder nudges a submitter to post an update on a prayer that has
// gone quiet for the configured interval.
func (c *Client) SendReminder(toEmail, prayerTitle string, intervalDays int) error {
	subject := fmt.Sprintf("How can we keep praying for %q?", prayerTitle)
	textBody := fmt.Sprintf(
		"It's been %d days since there was any activity on your prayer request %q.\n\nReply with an update, mark it answered, or let it be archived.",
		intervalDays, prayerTitle,
	)
	htmlBody := fmt.Sprintf(
		`<p>It's been %d days since there was any activity on your prayer request <strong>%s</strong>.</p><p>Post an update, mark it answered, or let it be archived.</p>`,
		intervalDays, prayerTitle,
	)
	return c.send(toEmail, subject, htmlBody, textBody)
}

func (c *Client) send(toEmail, subject, htmlBody, textBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
