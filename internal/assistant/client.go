// Package assistant adapts the local chat transcript to the external
// chat-completions API.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dvieira/kai/internal/config"
	apierrors "github.com/dvieira/kai/internal/errors"
	"github.com/dvieira/kai/internal/logging"
	"github.com/dvieira/kai/internal/models"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4096

// Client sends transcripts to an OpenAI-compatible chat-completions
// endpoint and returns the generated assistant message.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int
	timeout    time.Duration
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithModel sets the model identifier sent with every request
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithEndpoint overrides the chat-completions endpoint
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTimeout bounds each request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxTokens caps reply length
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// WithHTTPClient replaces the underlying HTTP client (test seam)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client from the loaded configuration. Options
// override individual configuration values.
func NewClient(cfg config.Config, opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{},
		endpoint:   cfg.EndpointOrDefault(),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Model returns the model identifier the client sends.
func (c *Client) Model() string { return c.model }

// chatRequest is the chat-completions request payload
type chatRequest struct {
	Model     string           `json:"model"`
	Messages  []models.Message `json:"messages"`
	MaxTokens int              `json:"max_tokens,omitempty"`
}

// chatResponse is the subset of the response payload kai consumes
type chatResponse struct {
	Choices []struct {
		Message models.Message `json:"message"`
	} `json:"choices"`
}

// Send posts the transcript and returns exactly one new assistant message.
// The call is bounded by the configured timeout; ctx may cancel it earlier.
func (c *Client) Send(ctx context.Context, transcript models.Transcript) (models.Message, error) {
	if len(transcript) == 0 {
		return models.Message{}, fmt.Errorf("transcript cannot be empty")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  transcript,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Message{}, classifyTransportError(c.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.Message{}, c.errorFromStatus(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Message{}, apierrors.NewNetworkError(c.endpoint, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.Message{}, apierrors.NewProviderError(resp.StatusCode, c.endpoint,
			"cannot decode response", truncate(string(body), maxErrorBody))
	}
	if len(parsed.Choices) == 0 {
		return models.Message{}, apierrors.NewProviderError(resp.StatusCode, c.endpoint,
			"no choices in response", truncate(string(body), maxErrorBody))
	}

	msg := parsed.Choices[0].Message
	if msg.Content == "" {
		return models.Message{}, apierrors.NewProviderError(resp.StatusCode, c.endpoint,
			"empty message in response", truncate(string(body), maxErrorBody))
	}
	// Normalize: the transcript only holds assistant entries for replies
	msg.Role = models.RoleAssistant

	logging.Debugw("assistant reply received",
		"model", c.model,
		"messages", len(transcript),
		"elapsed", time.Since(start).String(),
	)

	return msg, nil
}

// errorFromStatus maps a non-200 response to the adapter error taxonomy.
func (c *Client) errorFromStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := providerMessage(body)

	logging.Warnw("assistant request failed",
		"status", resp.StatusCode,
		"endpoint", c.endpoint,
	)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apierrors.NewAuthError(resp.StatusCode, message)
	default:
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return apierrors.NewProviderError(resp.StatusCode, c.endpoint, message, string(body))
	}
}

// providerMessage probes an error payload for a human-readable message.
// OpenAI-style bodies nest it under error.message.
func providerMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	return ""
}

// classifyTransportError distinguishes timeouts from other transport
// failures.
func classifyTransportError(endpoint string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.NewTimeoutError(err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apierrors.NewNetworkError(endpoint, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
