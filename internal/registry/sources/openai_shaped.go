package sources

import (
	"context"

	"github.com/compose-market/agentgate/internal/registry"
)

// openAIShapedEntry is the common `{data:[{id,owned_by,...}]}` listing
// shape shared by OpenAI, Anthropic, OpenRouter, AIML, and the two ASI
// endpoints (spec.md §4.2: "each calls its native /models-shaped
// endpoint").
type openAIShapedEntry struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

type openAIShapedResponse struct {
	Data []openAIShapedEntry `json:"data"`
}

// openAIShapedSource is a Source built on the generic listing shape; the
// per-provider constructors in providers.go just supply the endpoint URL,
// source name, and API key.
type openAIShapedSource struct {
	name       string
	url        string
	apiKey     string
	rest       *restClient
}

func newOpenAIShapedSource(name, url, apiKey string) *openAIShapedSource {
	return &openAIShapedSource{name: name, url: url, apiKey: apiKey, rest: newRESTClient(bearerAuth(apiKey))}
}

func (s *openAIShapedSource) Name() string { return s.name }

func (s *openAIShapedSource) Fetch(ctx context.Context) ([]registry.ModelInfo, error) {
	if s.apiKey == "" {
		return nil, nil // unavailable: no credential, not an error (spec.md §4.2 "logs and returns [])
	}
	var resp openAIShapedResponse
	if err := s.rest.getJSON(ctx, s.url, &resp); err != nil {
		return nil, err
	}
	models := make([]registry.ModelInfo, 0, len(resp.Data))
	for _, e := range resp.Data {
		if e.ID == "" {
			continue
		}
		task := classifyByName(e.ID)
		models = append(models, registry.ModelInfo{
			ID:        e.ID,
			Name:      e.ID,
			OwnedBy:   orDefault(e.OwnedBy, s.name),
			Source:    s.name,
			Task:      task,
			Available: true,
		})
	}
	return models, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
