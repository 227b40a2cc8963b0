// Package tokens provides prompt token counting so over-long requests are
// rejected before any network call.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/tjfontaine/promptpack/internal/domain"
)

// Counter counts prompt tokens using tiktoken encodings. Codecs are cached
// per encoding since construction is relatively expensive.
type Counter struct {
	mu         sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates a counter.
func NewCounter() *Counter {
	return &Counter{
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// Count returns the number of tokens in text under the model's encoding.
// When the encoding is unavailable it falls back to a character-based
// estimate rather than failing the request.
func (c *Counter) Count(model, text string) int {
	codec, err := c.getCodec(model)
	if err != nil {
		return estimateTokens(text)
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

// CheckBudget rejects a request whose prompt plus reserved reply tokens
// cannot fit the model's context window.
func (c *Counter) CheckBudget(model, prompt string, maxTokens int) error {
	window := ContextWindow(model)
	used := c.Count(model, prompt)
	if used+maxTokens > window {
		return domain.ErrValidation(fmt.Sprintf(
			"prompt uses %d tokens but %s allows %d including the %d reserved for the reply; shorten the prompt or lower maxTokens",
			used, model, window, maxTokens))
	}
	return nil
}

func (c *Counter) getCodec(model string) (tokenizer.Codec, error) {
	encoding := modelToEncoding(model)

	c.mu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}

	c.mu.Lock()
	c.codecCache[encoding] = codec
	c.mu.Unlock()

	return codec, nil
}

// modelToEncoding maps model names to tiktoken encodings.
//
// Encoding reference:
// - Cl100kBase: gpt-4, gpt-3.5-turbo
// - P50kBase: text-davinci-003, text-davinci-002
// - R50kBase: earlier completion models (text-curie-001, ada, ...)
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.Contains(model, "gpt-4"), strings.Contains(model, "gpt-3.5-turbo"):
		return tokenizer.Cl100kBase
	case strings.HasPrefix(model, "text-davinci-003"), strings.HasPrefix(model, "text-davinci-002"):
		return tokenizer.P50kBase
	default:
		return tokenizer.R50kBase
	}
}

// ContextWindow returns the model's total context size in tokens. Unknown
// models get the most conservative window.
func ContextWindow(model string) int {
	model = strings.ToLower(model)

	switch {
	case strings.Contains(model, "gpt-4-32k"):
		return 32768
	case strings.Contains(model, "gpt-4"):
		return 8192
	case strings.Contains(model, "gpt-3.5-turbo-16k"):
		return 16384
	case strings.Contains(model, "gpt-3.5-turbo"):
		return 4096
	case strings.HasPrefix(model, "text-davinci-003"), strings.HasPrefix(model, "text-davinci-002"):
		return 4097
	default:
		return 2049
	}
}

// estimateTokens approximates a token count at roughly four characters per
// token, rounding up.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}
