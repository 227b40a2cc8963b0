// Package router dispatches a flat completion request to the correct
// remote endpoint based on the model name.
package router

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/promptpack/internal/api/openai"
)

// chatModelMarkers identify the chat-oriented model families. Matching is
// by substring so dated snapshot variants (gpt-3.5-turbo-0301,
// gpt-4-0613) route the same as their base names.
var chatModelMarkers = []string{"gpt-3.5-turbo", "gpt-4"}

// IsChatModel reports whether the model belongs to a chat-oriented family.
func IsChatModel(model string) bool {
	for _, marker := range chatModelMarkers {
		if strings.Contains(model, marker) {
			return true
		}
	}
	return false
}

// Request is a flat completion request. The router decides which endpoint
// shape it becomes.
type Request struct {
	Model  string
	Prompt string

	// SystemPrompt, when set, precedes the user message. It is only
	// meaningful for chat-family models; legacy models ignore it.
	SystemPrompt string

	MaxTokens   int
	Temperature *float64
	Stop        []string
}

// Router performs the endpoint dispatch. It is stateless; one Router is
// shared by every formula in the catalog.
type Router struct {
	client *openai.Client
	tracer trace.Tracer
}

// New creates a router over the given client.
func New(client *openai.Client) *Router {
	return &Router{
		client: client,
		tracer: otel.Tracer("promptpack/router"),
	}
}

// Complete sends the request to the appropriate endpoint and returns the
// generated text, trimmed of surrounding whitespace. An empty prompt
// short-circuits to an empty result with no network call.
func (r *Router) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", nil
	}

	ctx, span := r.tracer.Start(ctx, "router.complete", trace.WithAttributes(
		attribute.String("model", req.Model),
		attribute.Bool("chat", IsChatModel(req.Model)),
	))
	defer span.End()

	if IsChatModel(req.Model) {
		return r.completeChat(ctx, req)
	}
	return r.completeLegacy(ctx, req)
}

func (r *Router) completeChat(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: req.Prompt})

	resp, err := r.client.CreateChatCompletion(ctx, &openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (r *Router) completeLegacy(ctx context.Context, req Request) (string, error) {
	resp, err := r.client.CreateCompletion(ctx, &openai.CompletionRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
