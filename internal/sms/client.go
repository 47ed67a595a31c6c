// Package sms delivers one-time passcodes out of band.
package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Notifier delivers an OTP code to a phone number.
type Notifier interface {
	SendOTP(phoneNumber, code string) error
}

// Client sends OTP SMS through an HTTP gateway (SMS Local style OTP route).
type Client struct {
	apiKey     string
	baseURL    string
	sender     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(apiKey, baseURL, sender string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "https://www.smslocal.com/dev/bulkV2"
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		sender:     sender,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type gatewayRequest struct {
	Route     string `json:"route"`
	Numbers   string `json:"numbers"`
	Variables string `json:"variables"`
	Sender    string `json:"sender_id,omitempty"`
}

// SendOTP sends the code to the given phone number. The code is never logged
// here; gateway errors include status and body, which the OTP route does not
// echo back.
func (c *Client) SendOTP(phoneNumber, code string) error {
	if !c.Configured() {
		return fmt.Errorf("sms: API key not configured")
	}

	body, err := json.Marshal(gatewayRequest{
		Route:     "otp",
		Numbers:   phoneNumber,
		Variables: code,
		Sender:    c.sender,
	})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway: status %d body %s", resp.StatusCode, string(b))
	}
	return nil
}

// ConsoleNotifier logs OTP codes instead of sending them. Development only:
// config.Load refuses to run without a gateway key in production.
type ConsoleNotifier struct {
	logger *slog.Logger
}

func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) SendOTP(phoneNumber, code string) error {
	n.logger.Info("OTP code (console fallback, sms gateway not configured)",
		"phone_number", phoneNumber, "code", code, "valid_for", "10 minutes")
	return nil
}
