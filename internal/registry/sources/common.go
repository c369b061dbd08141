// Package sources implements one fetcher per provider catalog named in
// spec.md §4.2. Each fetcher is a registry.Source; wiring concrete
// instances into a registry.Cache happens at the composition root
// (cmd/agentgate) to avoid an import cycle between registry and sources.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/compose-market/agentgate/internal/registry"
)

const defaultRequestTimeout = 10 * time.Second

// restClient is the shared low-level GET+auth+JSON-decode helper every
// source fetcher is built on, grounded on the teacher's
// internal/mistral/client.go and internal/elevenlabs/client.go request
// idiom (timeout, bearer header, status-code classification).
type restClient struct {
	httpClient *http.Client
	authHeader func(req *http.Request)
}

func newRESTClient(authHeader func(req *http.Request)) *restClient {
	return &restClient{httpClient: &http.Client{Timeout: defaultRequestTimeout}, authHeader: authHeader}
}

func (c *restClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.authHeader != nil {
		c.authHeader(req)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &registry.Error{Message: "request failed", Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &registry.Error{Message: "failed to read response", Retryable: true, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &registry.Error{
			Message:   fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
			Retryable: resp.StatusCode >= 500,
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &registry.Error{Message: "malformed response", Cause: err}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func bearerAuth(token string) func(req *http.Request) {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// classifyByName applies the model-id heuristics from spec.md §4.3 to
// assign a task to a source entry whose native API doesn't tag one.
func classifyByName(id string) registry.Task {
	lower := strings.ToLower(id)
	switch {
	case containsAny(lower, "flux", "stable-diffusion", "sdxl", "dall"):
		return registry.TaskTextToImage
	case containsAny(lower, "whisper", "speech-to-text"):
		return registry.TaskAutomaticSpeechRecog
	case containsAny(lower, "tts", "text-to-speech", "bark", "speecht5"):
		return registry.TaskTextToSpeech
	case containsAny(lower, "embed", "e5", "bge", "minilm", "sentence-transformer"):
		return registry.TaskFeatureExtraction
	case containsAny(lower, "veo"):
		return registry.TaskTextToVideo
	case containsAny(lower, "lyria"):
		return registry.TaskTextToAudio
	case containsAny(lower, "imagen") || strings.HasSuffix(lower, "-image"):
		return registry.TaskTextToImage
	default:
		return registry.TaskTextGeneration
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
