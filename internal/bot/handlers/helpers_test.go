package handlers

import (
	"strings"
	"testing"

	"github.com/nakildias/ollamabot/internal/database"
)

func TestCommandArgument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple", "/ask what is go?", "what is go?"},
		{"no argument", "/ask", ""},
		{"trailing space only", "/ask   ", ""},
		{"multi word preserved", "/language brazilian portuguese", "brazilian portuguese"},
		{"with bot suffix", "/ask@ollamabot hello", "hello"},
		{"newline separator", "/ask\nhello there", "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := commandArgument(tt.text); got != tt.want {
				t.Errorf("commandArgument(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	summary := &database.UsageSummary{
		Total: 5,
		ByCommand: map[string]int64{
			"ask":      4,
			"language": 1,
		},
		ByStatus: map[string]int64{
			"ok":      3,
			"timeout": 2,
		},
	}

	got := formatSummary(summary)

	for _, want := range []string{"5 requests", "ask: 4", "language: 1", "ok: 3", "timeout: 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatSummary output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatSummaryEmpty(t *testing.T) {
	t.Parallel()

	got := formatSummary(&database.UsageSummary{
		ByCommand: map[string]int64{},
		ByStatus:  map[string]int64{},
	})
	if !strings.Contains(got, "0 requests") || !strings.Contains(got, "(none)") {
		t.Errorf("formatSummary for empty log = %q", got)
	}
}
