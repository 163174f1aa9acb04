package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nakildias/ollamabot/internal/config"
	"github.com/nakildias/ollamabot/internal/ollama"
	"github.com/nakildias/ollamabot/internal/prefs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Relay, string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := ollama.NewClient(config.OllamaConfig{
		URL:     srv.URL,
		Model:   "llama3.2:3b",
		Timeout: timeout,
	}, testLogger())
	return New(client, testLogger()), srv.URL
}

func TestBuildPromptAlwaysContainsDirective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		instruction string
		prompt      string
	}{
		{"no instruction", "", "what is the capital of France?"},
		{"with instruction", "Answer me in Spanish.", "what is the capital of France?"},
		{"empty prompt", "", ""},
		{"whitespace prompt", "Answer me in German.", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			composed := BuildPrompt(tt.instruction, tt.prompt)
			if !strings.Contains(composed, ShortAnswerDirective) {
				t.Errorf("composed prompt %q missing directive", composed)
			}
			if composed != strings.TrimSpace(composed) {
				t.Errorf("composed prompt %q not trimmed", composed)
			}
		})
	}
}

func TestBuildPromptOrdersParts(t *testing.T) {
	t.Parallel()

	composed := BuildPrompt("Answer me in Spanish.", "hello there")
	want := "Answer me in Spanish. " + ShortAnswerDirective + " hello there"
	if composed != want {
		t.Errorf("BuildPrompt = %q, want %q", composed, want)
	}

	// No instruction: directive leads, no leftover leading space.
	composed = BuildPrompt("", "hello there")
	want = ShortAnswerDirective + " hello there"
	if composed != want {
		t.Errorf("BuildPrompt without instruction = %q, want %q", composed, want)
	}
}

func TestRespondSuccess(t *testing.T) {
	t.Parallel()

	r, _ := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message":{"content":" Paris "}}`))
	}, 5*time.Second)

	text, rerr := r.Respond(context.Background(), "", "capital of France?")
	if rerr != nil {
		t.Fatalf("Respond returned error: %v", rerr)
	}
	if text != "Paris" {
		t.Errorf("text = %q, want %q", text, "Paris")
	}
}

func TestRespondFailureMessages(t *testing.T) {
	t.Parallel()

	t.Run("unexpected shape", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"foo":"bar"}`))
		}, 5*time.Second)

		text, rerr := r.Respond(context.Background(), "", "hi")
		if text != unexpectedShapeMessage {
			t.Errorf("text = %q, want %q", text, unexpectedShapeMessage)
		}
		if rerr == nil || rerr.Kind != ollama.KindUnexpectedShape {
			t.Errorf("kind = %v, want unexpected shape", rerr)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`not json at all`))
		}, 5*time.Second)

		text, _ := r.Respond(context.Background(), "", "hi")
		if text != malformedMessage {
			t.Errorf("text = %q, want %q", text, malformedMessage)
		}
	})

	t.Run("incomplete shape", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"message":"flat"}`))
		}, 5*time.Second)

		text, _ := r.Respond(context.Background(), "", "hi")
		if text != incompleteShapeMessage {
			t.Errorf("text = %q, want %q", text, incompleteShapeMessage)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRelay(t, func(w http.ResponseWriter, req *http.Request) {
			select {
			case <-req.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, 50*time.Millisecond)

		text, rerr := r.Respond(context.Background(), "", "hi")
		if text != timeoutMessage {
			t.Errorf("text = %q, want %q", text, timeoutMessage)
		}
		if rerr == nil || rerr.Kind != ollama.KindTimeout {
			t.Errorf("kind = %v, want timeout", rerr)
		}
	})

	t.Run("transport error includes endpoint", func(t *testing.T) {
		t.Parallel()

		r, url := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}, 5*time.Second)

		text, _ := r.Respond(context.Background(), "", "hi")
		if !strings.HasPrefix(text, "Error: Could not connect to the AI service at "+url) {
			t.Errorf("text = %q, want transport message naming %s", text, url)
		}
	})
}

func TestAdaptOutput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 2500)

	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"passthrough", "short answer", 2000, "short answer"},
		{"exactly at limit", strings.Repeat("b", 2000), 2000, strings.Repeat("b", 2000)},
		{"over limit", long, 2000, long[:1997] + "..."},
		{"empty", "", 2000, NoResponseMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := AdaptOutput(tt.text, tt.limit)
			if got != tt.want {
				t.Errorf("AdaptOutput length %d, want length %d", len(got), len(tt.want))
			}
			if len([]rune(got)) > tt.limit {
				t.Errorf("AdaptOutput result exceeds limit: %d > %d", len([]rune(got)), tt.limit)
			}
		})
	}
}

func TestAdaptOutputTruncatesAtExactBoundary(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("x", 2500)
	got := AdaptOutput(in, 2000)
	if len(got) != 2000 {
		t.Fatalf("result length = %d, want 2000", len(got))
	}
	if got[:1997] != in[:1997] {
		t.Error("truncated prefix does not match the original")
	}
	if got[1997:] != "..." {
		t.Errorf("suffix = %q, want ellipsis marker", got[1997:])
	}
}

// Two users ask concurrently: one with a stored language preference, one
// without. Each composed prompt must reflect only its own user's preference
// and the slower backend response must not delay or corrupt the other.
func TestConcurrentAsksAreIndependent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	received := make(map[string]string) // composed prompt -> reply sent

	handler := func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
			t.Errorf("bad request body: %v", err)
			return
		}
		composed := req.Messages[0].Content

		reply := "reply-b"
		if strings.Contains(composed, "french") {
			// Slow down the preference-bearing request to exercise
			// out-of-order completion.
			time.Sleep(100 * time.Millisecond)
			reply = "reply-a"
		}

		mu.Lock()
		received[composed] = reply
		mu.Unlock()

		fmt.Fprintf(w, `{"message":{"content":%q}}`, reply)
	}

	r, _ := newTestRelay(t, handler, 5*time.Second)

	store := prefs.NewStore(testLogger())
	store.Set(1, "french")

	var wg sync.WaitGroup
	results := make([]string, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], _ = r.Respond(context.Background(), store.Get(1), "hello")
	}()
	go func() {
		defer wg.Done()
		results[1], _ = r.Respond(context.Background(), store.Get(2), "hello")
	}()
	wg.Wait()

	if results[0] != "reply-a" {
		t.Errorf("user A got %q, want reply-a", results[0])
	}
	if results[1] != "reply-b" {
		t.Errorf("user B got %q, want reply-b", results[1])
	}

	mu.Lock()
	defer mu.Unlock()
	for composed := range received {
		switch received[composed] {
		case "reply-a":
			if !strings.Contains(composed, "Answer me in french.") {
				t.Errorf("user A composed prompt %q missing language instruction", composed)
			}
		case "reply-b":
			if strings.Contains(composed, "Answer me in") {
				t.Errorf("user B composed prompt %q has an unexpected language instruction", composed)
			}
		}
	}
}
