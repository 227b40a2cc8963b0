package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tjfontaine/promptpack/internal/api/openai"
)

// upstream records every request the router sends and replies with canned
// endpoint-shaped bodies.
type upstream struct {
	server *httptest.Server
	paths  []string
	bodies []map[string]any
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		u.paths = append(u.paths, r.URL.Path)
		u.bodies = append(u.bodies, body)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/completions":
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hi  "}}]}`))
		case "/completions":
			w.Write([]byte(`{"choices":[{"text":"  hi  "}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) router() *Router {
	return New(openai.NewClient("test-key",
		openai.WithBaseURL(u.server.URL),
		openai.WithHTTPClient(u.server.Client()),
	))
}

func TestIsChatModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-3.5-turbo", true},
		{"gpt-3.5-turbo-0301", true},
		{"gpt-3.5-turbo-16k", true},
		{"gpt-4", true},
		{"gpt-4-0613", true},
		{"gpt-4-32k", true},
		{"text-davinci-003", false},
		{"text-curie-001", false},
		{"davinci", false},
	}
	for _, tt := range tests {
		if got := IsChatModel(tt.model); got != tt.want {
			t.Errorf("IsChatModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestCompleteDispatchesByModel(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		wantPath string
	}{
		{"chat base name", "gpt-3.5-turbo", "/chat/completions"},
		{"chat snapshot", "gpt-3.5-turbo-0301", "/chat/completions"},
		{"gpt-4 snapshot", "gpt-4-0613", "/chat/completions"},
		{"legacy", "text-davinci-003", "/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t)
			got, err := u.router().Complete(context.Background(), Request{
				Model:  tt.model,
				Prompt: "hello",
			})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if got != "hi" {
				t.Errorf("result = %q, want %q (trimmed)", got, "hi")
			}
			if len(u.paths) != 1 || u.paths[0] != tt.wantPath {
				t.Errorf("paths = %v, want one call to %s", u.paths, tt.wantPath)
			}
		})
	}
}

func TestCompleteEmptyPromptShortCircuits(t *testing.T) {
	u := newUpstream(t)
	for _, prompt := range []string{"", "   ", "\n\t"} {
		got, err := u.router().Complete(context.Background(), Request{
			Model:  "gpt-3.5-turbo",
			Prompt: prompt,
		})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if got != "" {
			t.Errorf("result = %q, want empty", got)
		}
	}
	if len(u.paths) != 0 {
		t.Errorf("made %d network calls, want 0", len(u.paths))
	}
}

func TestCompleteChatMessageShape(t *testing.T) {
	u := newUpstream(t)
	_, err := u.router().Complete(context.Background(), Request{
		Model:        "gpt-4",
		Prompt:       "the question",
		SystemPrompt: "be terse",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	messages, ok := u.bodies[0]["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v, want system then user", u.bodies[0]["messages"])
	}
	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	if first["role"] != "system" || first["content"] != "be terse" {
		t.Errorf("first message = %v, want system prompt", first)
	}
	if second["role"] != "user" || second["content"] != "the question" {
		t.Errorf("second message = %v, want user prompt", second)
	}
	if _, hasPrompt := u.bodies[0]["prompt"]; hasPrompt {
		t.Error("chat request must not carry a flat prompt field")
	}
}

func TestCompleteLegacyRequestShape(t *testing.T) {
	u := newUpstream(t)
	_, err := u.router().Complete(context.Background(), Request{
		Model:  "text-davinci-003",
		Prompt: "finish this",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if u.bodies[0]["prompt"] != "finish this" {
		t.Errorf("prompt = %v, want flat prompt", u.bodies[0]["prompt"])
	}
	if _, hasMessages := u.bodies[0]["messages"]; hasMessages {
		t.Error("legacy request must not carry messages")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	rt := New(openai.NewClient("test-key",
		openai.WithBaseURL(server.URL),
		openai.WithHTTPClient(server.Client()),
	))
	got, err := rt.Complete(context.Background(), Request{Model: "gpt-4", Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "" {
		t.Errorf("result = %q, want empty for no choices", got)
	}
}
