package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Mailer sends transactional email. Implementations are best-effort:
// callers log failures and move on, a lost email never fails a booking.
type Mailer interface {
	Send(msg *Message) error
}

// Message is one transactional email
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

// Config holds mail gateway configuration
type Config struct {
	Mode      string // "dev" logs instead of sending
	APIURL    string
	APIKey    string
	FromName  string
	FromEmail string
}

// Client sends email through an HTTP mail API (MailerSend-compatible)
type Client struct {
	cfg    Config
	client *http.Client
	logger *logrus.Logger
}

// NewClient creates a new mail client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiRequest is the mail API payload
type apiRequest struct {
	From    apiAddress   `json:"from"`
	To      []apiAddress `json:"to"`
	Subject string       `json:"subject"`
	HTML    string       `json:"html"`
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Send delivers one message. In dev mode the message is logged instead.
func (c *Client) Send(msg *Message) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("recipient email is empty")
	}

	if c.cfg.Mode != "production" {
		c.logger.WithFields(logrus.Fields{
			"to":      msg.ToEmail,
			"subject": msg.Subject,
		}).Info("📧 Dev mode: email not sent")
		return nil
	}

	payload := apiRequest{
		From:    apiAddress{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		To:      []apiAddress{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	url := fmt.Sprintf("%s/email", c.cfg.APIURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
