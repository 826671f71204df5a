// Package llm is the client for the OpenAI-compatible chat-completions API
// used for recipe backfill, instruction generation and chat replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a single completion for a list of role-tagged messages.
// Every call may fail; callers decide how to recover.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

var (
	ErrNotConfigured = errors.New("llm: client not configured")
	ErrEmptyResponse = errors.New("llm: empty completion")
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: API returned status %d: %s", e.StatusCode, e.Body)
}

// Config configures the HTTP client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// OpenAIClient calls POST {BaseURL}/chat/completions.
type OpenAIClient struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

// NewOpenAIClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewOpenAIClient(cfg Config, httpClient *http.Client) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAIClient{
		cfg:        cfg,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		httpClient: httpClient,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// Unavailable is used when no API key is configured; every call fails so
// callers drop to their deterministic fallbacks.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, []Message) (string, error) {
	return "", ErrNotConfigured
}
