// Package groq is a minimal client for the Groq chat completion API, used by
// the in-app help chatbot.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/parkping/ParkPing/internal/pkg/env"
)

const apiURL = "https://api.groq.com/openai/v1/chat/completions"

// Config carries the API credentials and model selection.
type Config struct {
	APIKey string
	Model  string
}

// ConfigFromEnv reads the Groq configuration from the environment.
func ConfigFromEnv() Config {
	return Config{
		APIKey: env.GetEnv("GROQ_API_KEY", ""),
		Model:  env.GetEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
	}
}

// IsConfigured reports whether an API key is present.
func (c Config) IsConfigured() bool {
	return c.APIKey != ""
}

// Client talks to the Groq chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Groq client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a system prompt plus user message and returns the reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if !c.cfg.IsConfigured() {
		return "", fmt.Errorf("groq API key not configured")
	}

	payload := completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach groq API: %w", err)
	}
	defer resp.Body.Close()

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode groq response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("groq API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("groq API returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
