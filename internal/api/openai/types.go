// Package openai provides the wire types and HTTP client for the remote
// text and image generation API. The same types are used by the router and
// by the image formula.
package openai

import (
	"encoding/json"

	"github.com/tjfontaine/promptpack/internal/domain"
)

// Message roles accepted by the chat endpoint. An optional system message
// precedes exactly one user message.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionRequest is a legacy single-prompt completion request.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// CompletionResponse is the legacy completion endpoint response. The
// generated text lives at Choices[0].Text.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// CompletionChoice is a single generated completion.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

// ChatMessage is one message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is a structured multi-message chat request.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// ChatCompletionResponse is the chat endpoint response. The generated text
// lives at Choices[0].Message.Content.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// ChatChoice is a single generated chat reply.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage reports token accounting for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Image response formats.
const (
	ImageFormatURL     = "url"
	ImageFormatB64JSON = "b64_json"
)

// ImageRequest is an image generation request.
type ImageRequest struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// ImageResponse is the image generation endpoint response.
type ImageResponse struct {
	Created int64        `json:"created"`
	Data    []ImageDatum `json:"data"`
}

// ImageDatum is one generated image, as either a temporary URL or raw
// base64 depending on the requested response format.
type ImageDatum struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// ErrorResponse is the error envelope returned on failed requests.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains the error details from a failed response body.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ToDomain converts the wire error into the canonical taxonomy, tagging it
// with the response status code.
func (e *APIError) ToDomain(status int) *domain.RemoteError {
	return &domain.RemoteError{
		Status:  status,
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
	}
}

// ParseErrorResponse attempts to parse an error body. Returns nil with no
// error when the body is valid JSON but carries no error object.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	return errResp.Error, nil
}
