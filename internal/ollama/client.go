// Package ollama implements the HTTP client for an Ollama-compatible
// inference backend. It dispatches chat requests and normalizes the
// backend's heterogeneous response shapes into plain text or a typed Error.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nakildias/ollamabot/internal/config"
)

// bodySnippetLimit caps how much of a bad response body is logged.
const bodySnippetLimit = 200

// Client defines the backend operations used by the relay.
type Client interface {
	// Chat sends a single prompt and returns the generated text. On failure
	// it returns a typed *Error; it never returns both.
	Chat(ctx context.Context, prompt string) (string, *Error)

	// URL returns the configured endpoint, used in user-facing transport
	// error messages.
	URL() string
}

type httpClient struct {
	client  *http.Client
	logger  *slog.Logger
	url     string
	model   string
	timeout time.Duration
}

// NewClient creates a backend client from the Ollama configuration.
func NewClient(cfg config.OllamaConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &httpClient{
		// The per-request deadline is enforced via context, not the
		// transport, so a cancelled context is reported precisely.
		client:  &http.Client{},
		logger:  logger.With("component", "ollama_client"),
		url:     cfg.URL,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (c *httpClient) URL() string {
	return c.url
}

// chatRequest is the Ollama /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse covers the two recognized response shapes: the /api/chat
// message envelope and the /api/generate style top-level response field.
type chatResponse struct {
	Message  *responseMessage `json:"message"`
	Response *string          `json:"response"`
}

type responseMessage struct {
	Content *string `json:"content"`
}

// Chat performs a single-shot POST to the backend. There is no retry: one
// failed call is one failure surfaced to the caller.
func (c *httpClient) Chat(ctx context.Context, prompt string) (string, *Error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to marshal chat request", "error", err)
		return "", &Error{Kind: KindUnknown, Detail: "failed to encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to build chat request", "url", c.url, "error", err)
		return "", &Error{Kind: KindUnknown, Detail: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.classifyTransportError(ctx, err, time.Since(start))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to read response body", "url", c.url, "error", err)
		return "", &Error{Kind: KindUnknown, Detail: "failed to read response body", Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.ErrorContext(ctx, "Backend returned non-success status",
			"url", c.url, "status", resp.StatusCode, "body_snippet", snippet(raw))
		return "", &Error{
			Kind:   KindTransport,
			Detail: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode),
		}
	}

	return c.normalize(ctx, raw)
}

// normalize extracts the generated text from the decoded body, checking the
// recognized shapes in precedence order: message.content first, then the
// top-level response field.
func (c *httpClient) normalize(ctx context.Context, raw []byte) (string, *Error) {
	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			c.logger.ErrorContext(ctx, "Response shape matched partially",
				"field", typeErr.Field, "value_type", typeErr.Value, "error", err)
			return "", &Error{Kind: KindIncompleteShape, Detail: "partial shape match", Err: err}
		}

		c.logger.ErrorContext(ctx, "Failed to decode JSON response",
			"body_snippet", snippet(raw), "error", err)
		return "", &Error{Kind: KindMalformed, Detail: "response body is not valid JSON", Err: err}
	}

	if decoded.Message != nil && decoded.Message.Content != nil {
		return strings.TrimSpace(*decoded.Message.Content), nil
	}
	if decoded.Response != nil {
		return strings.TrimSpace(*decoded.Response), nil
	}

	c.logger.ErrorContext(ctx, "Unexpected API response structure", "body", string(raw))
	return "", &Error{Kind: KindUnexpectedShape, Detail: "body matched neither recognized shape"}
}

// classifyTransportError distinguishes deadline expiry from connection-level
// failures so each maps to its own user-facing message.
func (c *httpClient) classifyTransportError(ctx context.Context, err error, elapsed time.Duration) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.ErrorContext(ctx, "API request timed out",
			"url", c.url, "timeout", c.timeout, "elapsed", elapsed)
		return &Error{Kind: KindTimeout, Detail: fmt.Sprintf("no response within %s", c.timeout), Err: err}
	}

	c.logger.ErrorContext(ctx, "API request failed", "url", c.url, "error", err)
	return &Error{Kind: KindTransport, Detail: "request failed", Err: err}
}

func snippet(raw []byte) string {
	if len(raw) <= bodySnippetLimit {
		return string(raw)
	}
	return string(raw[:bodySnippetLimit]) + "..."
}
