package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/tjfontaine/promptpack/internal/domain"
)

func TestCountEmptyText(t *testing.T) {
	c := NewCounter()
	for _, model := range []string{"gpt-4", "gpt-3.5-turbo", "text-davinci-003", "text-ada-001"} {
		if got := c.Count(model, ""); got != 0 {
			t.Errorf("Count(%s, empty) = %d, want 0", model, got)
		}
	}
}

func TestCountScalesWithText(t *testing.T) {
	c := NewCounter()
	short := c.Count("gpt-4", "hello")
	long := c.Count("gpt-4", strings.Repeat("hello world ", 50))
	if short <= 0 {
		t.Fatalf("Count(short) = %d, want > 0", short)
	}
	if long <= short {
		t.Errorf("Count(long) = %d, not greater than Count(short) = %d", long, short)
	}
}

func TestCountCachesCodec(t *testing.T) {
	c := NewCounter()
	c.Count("gpt-4", "warm up")
	if got := c.Count("gpt-3.5-turbo", "same encoding"); got <= 0 {
		t.Errorf("Count() = %d after cache warm, want > 0", got)
	}
	if len(c.codecCache) != 1 {
		t.Errorf("codec cache holds %d entries, want 1 (shared encoding)", len(c.codecCache))
	}
}

func TestContextWindow(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"gpt-4-32k", 32768},
		{"gpt-4-32k-0613", 32768},
		{"gpt-4", 8192},
		{"gpt-4-0613", 8192},
		{"gpt-3.5-turbo-16k", 16384},
		{"gpt-3.5-turbo", 4096},
		{"gpt-3.5-turbo-0301", 4096},
		{"text-davinci-003", 4097},
		{"text-ada-001", 2049},
		{"some-unknown-model", 2049},
	}
	for _, tt := range tests {
		if got := ContextWindow(tt.model); got != tt.want {
			t.Errorf("ContextWindow(%s) = %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestCheckBudget(t *testing.T) {
	c := NewCounter()

	if err := c.CheckBudget("gpt-4", "a short prompt", 16); err != nil {
		t.Errorf("CheckBudget(small) = %v, want nil", err)
	}

	// Reply reservation alone exceeds the window.
	err := c.CheckBudget("text-ada-001", "hi", 5000)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("CheckBudget(oversized) = %v, want validation error", err)
	}
	if !strings.Contains(verr.Message, "text-ada-001") {
		t.Errorf("message = %q, want the model named", verr.Message)
	}

	// A prompt far larger than the window fails even with a token to spare.
	if err := c.CheckBudget("gpt-3.5-turbo", strings.Repeat("word ", 8000), 1); err == nil {
		t.Error("CheckBudget(huge prompt) = nil, want error")
	}
}
