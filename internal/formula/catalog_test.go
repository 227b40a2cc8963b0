package formula

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tjfontaine/promptpack/internal/api/openai"
	"github.com/tjfontaine/promptpack/internal/domain"
	"github.com/tjfontaine/promptpack/internal/tokens"
)

// upstream fakes the remote API and records every request body.
type upstream struct {
	server *httptest.Server
	paths  []string
	bodies []map[string]any

	// respond overrides the default canned handler when set.
	respond http.HandlerFunc
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.paths = append(u.paths, r.URL.Path)
		u.bodies = append(u.bodies, body)

		if u.respond != nil {
			u.respond(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/completions":
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" result "}}]}`))
		case "/completions":
			w.Write([]byte(`{"choices":[{"text":" result "}]}`))
		case "/images/generations":
			w.Write([]byte(`{"created":1,"data":[{"b64_json":"aW1n"}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) catalog(defaults Defaults) *Catalog {
	client := openai.NewClient("test-key",
		openai.WithBaseURL(u.server.URL),
		openai.WithHTTPClient(u.server.Client()),
	)
	return New(client, tokens.NewCounter(), defaults)
}

// lastPrompt extracts the composed prompt from the most recent request,
// regardless of which endpoint it went to.
func (u *upstream) lastPrompt(t *testing.T) string {
	t.Helper()
	if len(u.bodies) == 0 {
		t.Fatal("no requests recorded")
	}
	body := u.bodies[len(u.bodies)-1]
	if prompt, ok := body["prompt"].(string); ok {
		return prompt
	}
	messages, ok := body["messages"].([]any)
	if !ok || len(messages) == 0 {
		t.Fatalf("request carried neither prompt nor messages: %v", body)
	}
	last := messages[len(messages)-1].(map[string]any)
	return last["content"].(string)
}

func TestCatalogRegistersAllFormulas(t *testing.T) {
	c := newUpstream(t).catalog(Defaults{})
	want := []string{
		"Chat", "CreateImage", "Keywords", "MoodToColor", "Prompt",
		"PromptAction", "PromptExamples", "QuestionAnswer", "Sentiment", "Summarize",
	}
	got := c.List()
	if len(got) != len(want) {
		t.Fatalf("catalog has %d formulas, want %d", len(got), len(want))
	}
	for i, f := range got {
		if f.Name != want[i] {
			t.Errorf("formula[%d] = %s, want %s (sorted)", i, f.Name, want[i])
		}
	}
}

// emptyInputs maps every formula to parameters with an empty primary
// input. Each must return "" without touching the network.
var emptyInputs = map[string]map[string]any{
	"Prompt":         {"prompt": ""},
	"PromptAction":   {"prompt": "  "},
	"Chat":           {"prompt": ""},
	"PromptExamples": {"prompt": "", "trainingPrompts": []any{}, "trainingResponses": []any{}},
	"QuestionAnswer": {"question": ""},
	"Summarize":      {"text": "\n"},
	"Keywords":       {"text": ""},
	"MoodToColor":    {"mood": " "},
	"Sentiment":      {"text": ""},
	"CreateImage":    {"prompt": ""},
}

func TestEmptyInputShortCircuitsEveryFormula(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{})

	if len(emptyInputs) != len(c.List()) {
		t.Fatalf("empty-input table covers %d formulas, catalog has %d", len(emptyInputs), len(c.List()))
	}

	for name, params := range emptyInputs {
		t.Run(name, func(t *testing.T) {
			got, err := c.Invoke(context.Background(), name, params)
			if err != nil {
				t.Fatalf("Invoke(%s) error = %v", name, err)
			}
			if got != "" {
				t.Errorf("Invoke(%s) = %v, want empty string", name, got)
			}
		})
	}

	if len(u.paths) != 0 {
		t.Errorf("empty inputs made %d network calls, want 0", len(u.paths))
	}
}

func TestPromptUsesDefaultsAndModelOverride(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{Model: "gpt-3.5-turbo", MaxTokens: 256})

	if _, err := c.Invoke(context.Background(), "Prompt", map[string]any{"prompt": "hello"}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if u.paths[0] != "/chat/completions" {
		t.Errorf("default model routed to %s, want chat endpoint", u.paths[0])
	}
	if u.bodies[0]["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v, want default 256", u.bodies[0]["max_tokens"])
	}

	if _, err := c.Invoke(context.Background(), "Prompt", map[string]any{
		"prompt": "hello",
		"model":  "text-davinci-003",
	}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if u.paths[1] != "/completions" {
		t.Errorf("legacy model routed to %s, want legacy endpoint", u.paths[1])
	}
}

func TestPromptActionIsUncachedAction(t *testing.T) {
	c := newUpstream(t).catalog(Defaults{})
	f, ok := c.Get("PromptAction")
	if !ok {
		t.Fatal("PromptAction not registered")
	}
	if !f.IsAction {
		t.Error("PromptAction must be an action")
	}
	if f.CacheTTL != 0 {
		t.Errorf("CacheTTL = %v, want 0 for actions", f.CacheTTL)
	}
}

func TestChatRejectsNonChatModel(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{})

	_, err := c.Invoke(context.Background(), "Chat", map[string]any{
		"prompt": "hi",
		"model":  "text-davinci-003",
	})

	var uerr *domain.UserVisibleError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want user-visible rejection", err)
	}
	if !strings.Contains(uerr.Message, "not a chat model") {
		t.Errorf("message = %q", uerr.Message)
	}
	if len(u.paths) != 0 {
		t.Error("validation failure must precede any network call")
	}
}

func TestChatSendsSystemPrompt(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{})

	if _, err := c.Invoke(context.Background(), "Chat", map[string]any{
		"prompt":       "hi",
		"systemPrompt": "answer in French",
	}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	messages := u.bodies[0]["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %v, want system then user", messages)
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "answer in French" {
		t.Errorf("system message = %v", first)
	}
}

func TestPromptExamplesRejectsMismatchedLengths(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{})

	_, err := c.Invoke(context.Background(), "PromptExamples", map[string]any{
		"prompt":            "q",
		"trainingPrompts":   []any{"a", "b"},
		"trainingResponses": []any{"only one"},
	})

	var uerr *domain.UserVisibleError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want user-visible rejection", err)
	}
	if !strings.Contains(uerr.Message, "same length") {
		t.Errorf("message = %q", uerr.Message)
	}
	if len(u.paths) != 0 {
		t.Error("validation failure must precede any network call")
	}
}

func TestPromptExamplesComposesFewShot(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{})

	if _, err := c.Invoke(context.Background(), "PromptExamples", map[string]any{
		"prompt":            "blue",
		"trainingPrompts":   []any{"red", "green"},
		"trainingResponses": []any{"rouge", "vert"},
	}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	want := "red\nrouge\n\ngreen\nvert\n\nblue"
	if got := u.lastPrompt(t); got != want {
		t.Errorf("composed prompt = %q, want %q", got, want)
	}
}

func TestFixedRecipeTemplates(t *testing.T) {
	tests := []struct {
		formula string
		params  map[string]any
		check   func(t *testing.T, prompt string)
	}{
		{
			formula: "QuestionAnswer",
			params:  map[string]any{"question": "What is Go?"},
			check: func(t *testing.T, prompt string) {
				if !strings.Contains(prompt, "Q: What is Go?\nA:") {
					t.Errorf("prompt missing Q/A frame: %q", prompt)
				}
				if !strings.Contains(prompt, `"Unknown"`) {
					t.Errorf("prompt missing Unknown instruction: %q", prompt)
				}
			},
		},
		{
			formula: "Summarize",
			params:  map[string]any{"text": "A long passage."},
			check: func(t *testing.T, prompt string) {
				if !strings.HasSuffix(prompt, "\n\nTl;dr:") {
					t.Errorf("prompt missing Tl;dr delimiter: %q", prompt)
				}
			},
		},
		{
			formula: "Keywords",
			params:  map[string]any{"text": "Some document."},
			check: func(t *testing.T, prompt string) {
				if !strings.HasPrefix(prompt, "Extract keywords from this text:\n\n") {
					t.Errorf("prompt missing extraction instruction: %q", prompt)
				}
			},
		},
		{
			formula: "Sentiment",
			params:  map[string]any{"text": "I love it"},
			check: func(t *testing.T, prompt string) {
				if !strings.Contains(prompt, "positive, neutral, or negative") {
					t.Errorf("prompt missing classification frame: %q", prompt)
				}
				if !strings.HasSuffix(prompt, "Sentiment:") {
					t.Errorf("prompt must end at the completion point: %q", prompt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			u := newUpstream(t)
			c := u.catalog(Defaults{})
			if _, err := c.Invoke(context.Background(), tt.formula, tt.params); err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			tt.check(t, u.lastPrompt(t))
		})
	}
}

func TestMoodToColorShapesResult(t *testing.T) {
	u := newUpstream(t)
	u.respond = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" ff7f50; "}}]}`))
	}
	c := u.catalog(Defaults{})

	got, err := c.Invoke(context.Background(), "MoodToColor", map[string]any{"mood": "cozy"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != "#ff7f50" {
		t.Errorf("result = %v, want #ff7f50", got)
	}
	if !strings.Contains(u.lastPrompt(t), "background-color: #") {
		t.Errorf("prompt missing CSS completion frame: %q", u.lastPrompt(t))
	}
}

func TestRemote400SurfacesMessageVerbatim(t *testing.T) {
	u := newUpstream(t)
	u.respond = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}
	c := u.catalog(Defaults{})

	_, err := c.Invoke(context.Background(), "Prompt", map[string]any{"prompt": "hello"})

	var uerr *domain.UserVisibleError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want user-visible error", err)
	}
	if uerr.Message != "bad key" {
		t.Errorf("message = %q, want verbatim remote message", uerr.Message)
	}
}

func TestRemote500Propagates(t *testing.T) {
	u := newUpstream(t)
	u.respond = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"internal","type":"server_error"}}`))
	}
	c := u.catalog(Defaults{})

	_, err := c.Invoke(context.Background(), "Prompt", map[string]any{"prompt": "hello"})

	var uerr *domain.UserVisibleError
	if errors.As(err, &uerr) {
		t.Fatalf("500 must not become user-visible, got %v", err)
	}
	var rerr *domain.RemoteError
	if !errors.As(err, &rerr) || rerr.Status != http.StatusInternalServerError {
		t.Fatalf("error = %v, want RemoteError with status 500", err)
	}
}

func TestTokenBudgetRejectsOversizedPrompt(t *testing.T) {
	u := newUpstream(t)
	c := u.catalog(Defaults{Model: "text-ada-001"})

	_, err := c.Invoke(context.Background(), "Prompt", map[string]any{
		"prompt":    strings.Repeat("word ", 3000),
		"maxTokens": float64(1024),
	})

	var uerr *domain.UserVisibleError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want user-visible budget rejection", err)
	}
	if !strings.Contains(uerr.Message, "tokens") {
		t.Errorf("message = %q", uerr.Message)
	}
	if len(u.paths) != 0 {
		t.Error("budget rejection must precede any network call")
	}
}

func TestInvokeUnknownFormula(t *testing.T) {
	c := newUpstream(t).catalog(Defaults{})
	if _, err := c.Invoke(context.Background(), "NoSuchFormula", nil); err == nil {
		t.Fatal("expected error for unknown formula")
	}
}
