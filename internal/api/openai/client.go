package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/promptpack/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is an HTTP client for the completion, chat completion, and image
// generation endpoints. It performs exactly one outbound call per method
// invocation; there is no retry or backoff.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client. The default transport is wrapped
// with OpenTelemetry instrumentation.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCompletion sends a legacy single-prompt completion request.
func (c *Client) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var result CompletionResponse
	if err := c.post(ctx, "/completions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateChatCompletion sends a structured chat completion request.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	var result ChatCompletionResponse
	if err := c.post(ctx, "/chat/completions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateImage sends an image generation request.
func (c *Client) CreateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	var result ImageResponse
	if err := c.post(ctx, "/images/generations", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post performs one JSON request/response round trip. Failures are
// classified here: transport errors become domain.NetworkError, non-2xx
// responses with a parseable error body become domain.RemoteError.
func (c *Client) post(ctx context.Context, path string, req, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if apiErr, perr := ParseErrorResponse(respBody); perr == nil && apiErr != nil {
			return apiErr.ToDomain(resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
