// Package openaicompat is a chat-completions streaming client for any
// OpenAI-compatible endpoint (OpenAI, OpenRouter, AIML, ASI:One,
// ASI:Cloud — every registry source built on the OpenAI-shaped models
// list, per internal/registry/sources/providers.go). Grounded on the
// teacher's internal/mistral/client.go retry/backoff shape, adapted from
// a single-shot Generate call to an SSE chat-completions stream.
package openaicompat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/compose-market/agentgate/internal/router"
)

const (
	defaultRequestTimeout = 120 * time.Second
	defaultMaxRetries     = 2
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// Client streams chat completions from an OpenAI-compatible /v1/chat/completions
// endpoint. BaseURL/APIKey are resolved per-request from the routed model's
// Source so one Client instance can serve every OpenAI-shaped provider.
type Client struct {
	HTTPClient     *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// ResolveEndpoint maps a registry source id to its base URL and bearer
// token, mirroring internal/registry/sources/providers.go's per-source
// constants.
type ResolveEndpoint func(source string) (baseURL, apiKey string, err error)

// Error is a provider-facing error, mirroring the teacher's
// model.ProviderError shape without depending on the retiring
// internal/model package.
type Error struct {
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// StreamChat opens a streaming chat-completions request and hands each
// text delta to onChunk, returning accumulated token usage once the
// stream completes or the context is cancelled.
func (c *Client) StreamChat(ctx context.Context, baseURL, apiKey string, body map[string]interface{}, onChunk func(delta string)) (router.TokenUsage, error) {
	maxAttempts := c.maxRetries() + 1
	var lastErr error
	var lastUsage router.TokenUsage
	for attempt := 0; attempt < maxAttempts; attempt++ {
		usage, err := c.streamOnce(ctx, baseURL, apiKey, body, onChunk)
		if err == nil {
			return usage, nil
		}
		lastErr = err
		lastUsage = usage

		var provErr *Error
		if !errors.As(err, &provErr) || !provErr.Retryable || attempt == maxAttempts-1 {
			return lastUsage, err
		}
		if waitErr := c.wait(ctx, c.backoffForAttempt(attempt)); waitErr != nil {
			return lastUsage, waitErr
		}
	}
	return lastUsage, lastErr
}

func (c *Client) streamOnce(ctx context.Context, baseURL, apiKey string, reqBody map[string]interface{}, onChunk func(delta string)) (router.TokenUsage, error) {
	reqBody["stream"] = true
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_FAILED", Message: "failed to marshal request body", Cause: err}
	}

	url := strings.TrimRight(baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_FAILED", Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_FAILED", Message: "request failed", Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_AUTH", Message: fmt.Sprintf("authentication failed (%d)", resp.StatusCode)}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_RATE_LIMIT", Message: "rate limited", Retryable: true}
	}
	if resp.StatusCode >= 500 {
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_FAILED", Message: fmt.Sprintf("upstream error (%d)", resp.StatusCode), Retryable: true}
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return router.TokenUsage{}, &Error{Code: "OAI_COMPAT_FAILED", Message: fmt.Sprintf("request rejected (%d): %s", resp.StatusCode, string(raw))}
	}

	return parseSSEStream(resp.Body, onChunk)
}

func parseSSEStream(body io.Reader, onChunk func(delta string)) (router.TokenUsage, error) {
	var usage router.TokenUsage
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
			Usage *struct {
				PromptTokens     int64 `json:"prompt_tokens"`
				CompletionTokens int64 `json:"completion_tokens"`
				TotalTokens      int64 `json:"total_tokens"`
			} `json:"usage"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				onChunk(choice.Delta.Content)
			}
		}
		if chunk.Usage != nil {
			usage = router.TokenUsage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return usage, &Error{Code: "OAI_COMPAT_FAILED", Message: "stream read failed", Retryable: true, Cause: err}
	}
	return usage, nil
}

func (c *Client) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return defaultMaxRetries
}

func (c *Client) backoffForAttempt(attempt int) time.Duration {
	initial := c.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	max := c.MaxBackoff
	if max <= 0 {
		max = defaultMaxBackoff
	}
	backoff := initial << attempt
	if backoff > max || backoff <= 0 {
		backoff = max
	}
	return backoff
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
