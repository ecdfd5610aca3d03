// Package twilio bridges two phone numbers through the Twilio voice API.
// Twilio first calls the owner; once answered it fetches TwiML from our
// connect callback, which dials the scanner and joins both legs.
package twilio

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parkping/ParkPing/internal/pkg/env"
	"github.com/parkping/ParkPing/internal/pkg/masking"
)

const apiBase = "https://api.twilio.com/2010-04-01"

// Config carries the provider credentials. Presence is checked before any
// request goes out.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// ConfigFromEnv reads the Twilio credentials from the environment.
func ConfigFromEnv() Config {
	return Config{
		AccountSID: env.GetEnv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:  env.GetEnv("TWILIO_AUTH_TOKEN", ""),
		FromNumber: env.GetEnv("TWILIO_PHONE_NUMBER", ""),
	}
}

// IsConfigured reports whether all credentials are present.
func (c Config) IsConfigured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// Client implements masking.Connector against the Twilio REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Twilio call client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type callResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Connect asks Twilio to call the owner and run our connect TwiML once the
// call is answered. Status transitions are pushed to statusURL.
func (c *Client) Connect(ownerNumber, scannerNumber, connectURL, statusURL string) (*masking.ConnectResult, error) {
	if !c.cfg.IsConfigured() {
		return nil, fmt.Errorf("twilio credentials not configured")
	}

	form := url.Values{
		"To":                   {ownerNumber},
		"From":                 {c.cfg.FromNumber},
		"Url":                  {connectURL},
		"Method":               {"POST"},
		"StatusCallback":       {statusURL},
		"StatusCallbackEvent":  {"initiated", "ringing", "answered", "completed"},
		"StatusCallbackMethod": {"POST"},
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", apiBase, c.cfg.AccountSID)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach twilio API: %w", err)
	}
	defer resp.Body.Close()

	var body callResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode twilio response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := body.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("twilio rejected call: %s", msg)
	}

	return &masking.ConnectResult{
		CallSID: body.SID,
		Status:  body.Status,
	}, nil
}

// Configured reports whether the credentials needed for outbound calls are
// present.
func (c *Client) Configured() bool {
	return c.cfg.IsConfigured()
}

// CallerID returns the number shown to the scanner's phone.
func (c *Client) CallerID() string {
	return c.cfg.FromNumber
}
