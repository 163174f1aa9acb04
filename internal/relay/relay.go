// Package relay implements the prompt-relay pipeline: it composes the final
// prompt from the user's text, their stored language instruction, and the
// fixed short-answer directive, dispatches it to the inference backend, and
// converts every failure into a user-safe message. It also adapts the
// resulting text to the outbound channel's message-length limit.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nakildias/ollamabot/internal/ollama"
)

// ShortAnswerDirective is appended to every prompt so replies fit within a
// single chat message.
const ShortAnswerDirective = "Give me a short answer but don't mention that I've asked you to make it short."

// NoResponseMessage replaces a literally empty backend reply.
const NoResponseMessage = "The AI didn't provide a response."

// Fixed user-facing failure texts. Each error kind maps to exactly one of
// these; diagnostic detail stays in the operator log.
const (
	timeoutMessage         = "Error: The request to the AI timed out."
	transportMessageFmt    = "Error: Could not connect to the AI service at %s. Details: %s"
	malformedMessage       = "Error: Received an invalid response from the AI."
	unexpectedShapeMessage = "Error: Received an unexpected response format from the AI."
	incompleteShapeMessage = "Error: Received an incomplete response format from the AI."
	unknownMessageFmt      = "An unexpected error occurred while contacting the AI. Details: %s"
)

// Relay dispatches composed prompts to the backend and maps results to
// displayable text.
type Relay struct {
	client ollama.Client
	logger *slog.Logger
}

// New creates a Relay on top of the given backend client.
func New(client ollama.Client, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client: client,
		logger: logger.With("component", "relay"),
	}
}

// BuildPrompt composes the final prompt: language instruction (may be
// empty), then the short-answer directive, then the user's text. The
// directive guarantees the result is never empty when prompt is non-empty.
func BuildPrompt(instruction, prompt string) string {
	return strings.TrimSpace(instruction + " " + ShortAnswerDirective + " " + prompt)
}

// Respond composes the prompt, performs the single-shot backend call, and
// returns user-displayable text. It never fails: every error is converted to
// a safe message. The returned *ollama.Error (nil on success) carries the
// failure kind for accounting and logging only; it must not be shown to the
// user.
func (r *Relay) Respond(ctx context.Context, instruction, prompt string) (string, *ollama.Error) {
	composed := BuildPrompt(instruction, prompt)
	r.logger.DebugContext(ctx, "Dispatching composed prompt",
		"prompt_chars", len(prompt), "composed_chars", len(composed), "has_instruction", instruction != "")

	text, rerr := r.client.Chat(ctx, composed)
	if rerr == nil {
		return text, nil
	}

	return r.failureMessage(rerr), rerr
}

// failureMessage maps an error kind to its fixed user-facing text. The
// mapping is exhaustive over ollama.Kind; unrecognized kinds fall through to
// the catch-all.
func (r *Relay) failureMessage(rerr *ollama.Error) string {
	switch rerr.Kind {
	case ollama.KindTimeout:
		return timeoutMessage
	case ollama.KindTransport:
		return fmt.Sprintf(transportMessageFmt, r.client.URL(), shortDetail(rerr))
	case ollama.KindMalformed:
		return malformedMessage
	case ollama.KindUnexpectedShape:
		return unexpectedShapeMessage
	case ollama.KindIncompleteShape:
		return incompleteShapeMessage
	default:
		return fmt.Sprintf(unknownMessageFmt, shortDetail(rerr))
	}
}

// shortDetail picks a one-line description safe to echo to the user: the
// underlying error string if present, otherwise the classifier's detail.
func shortDetail(rerr *ollama.Error) string {
	if rerr.Err != nil {
		return rerr.Err.Error()
	}
	return rerr.Detail
}

// AdaptOutput fits relay output to the channel's message-length limit.
// Over-long text is cut to limit-3 characters plus an ellipsis marker; an
// empty result becomes the fixed no-response message.
func AdaptOutput(text string, limit int) string {
	if text == "" {
		return NoResponseMessage
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
