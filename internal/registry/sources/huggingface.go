package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/compose-market/agentgate/internal/registry"
)

// hfTaskList is the documented task priority order from spec.md §4.2.
var hfTaskList = []string{
	"text-generation", "text-to-image", "image-to-image",
	"text-to-speech", "automatic-speech-recognition", "text-to-video",
	"text-to-audio", "feature-extraction",
}

const (
	hfBatchSize        = 5
	hfInterBatchDelay  = 100 * time.Millisecond
)

type hfModelEntry struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
}

type hfRouterModelEntry struct {
	ID       string                  `json:"id"`
	Object   string                  `json:"object"`
	Providers []hfRouterProviderInfo `json:"providers"`
}

type hfRouterProviderInfo struct {
	Provider string  `json:"provider"`
	Status   string  `json:"status"` // live | staging
	Pricing  *struct {
		Input  float64 `json:"input"`
		Output float64 `json:"output"`
	} `json:"pricing"`
	ContextLength int  `json:"context_length"`
	SupportsTools bool `json:"supports_tools"`
}

type hfRouterResponse struct {
	Data []hfRouterModelEntry `json:"data"`
}

// huggingFaceSource enumerates models per task (batched, inter-batch
// delay) and optionally joins the router /v1/models endpoint for
// per-provider pricing, choosing the cheapest live provider as the
// model's top-level pricing (spec.md §4.2).
type huggingFaceSource struct {
	inferenceToken string
	rest           *restClient
	sleep          func(time.Duration) // overridable for tests
}

func NewHuggingFace(inferenceToken string) registry.Source {
	return &huggingFaceSource{
		inferenceToken: inferenceToken,
		rest:           newRESTClient(bearerAuth(inferenceToken)),
		sleep:          time.Sleep,
	}
}

func (s *huggingFaceSource) Name() string { return registry.SourceHuggingFace }

func (s *huggingFaceSource) Fetch(ctx context.Context) ([]registry.ModelInfo, error) {
	if s.inferenceToken == "" {
		return nil, nil
	}

	byID := make(map[string]registry.ModelInfo)
	for batchStart := 0; batchStart < len(hfTaskList); batchStart += hfBatchSize {
		end := batchStart + hfBatchSize
		if end > len(hfTaskList) {
			end = len(hfTaskList)
		}
		for _, task := range hfTaskList[batchStart:end] {
			models, err := s.fetchTask(ctx, task)
			if err != nil {
				continue // a single task failing doesn't fail the source fetch
			}
			for _, m := range models {
				byID[m.ID] = m
			}
		}
		if end < len(hfTaskList) {
			s.sleep(hfInterBatchDelay)
		}
	}

	pricingByModel, _ := s.fetchRouterPricing(ctx)
	out := make([]registry.ModelInfo, 0, len(byID))
	for id, m := range byID {
		if providers, ok := pricingByModel[id]; ok {
			m.Providers = providers
			if cheapest, ok := cheapestLiveProvider(providers); ok {
				m.Pricing = &registry.Pricing{
					Provider:               cheapest.Provider,
					InputPerMillionTokens:  cheapest.InputPerMillionTokens,
					OutputPerMillionTokens: cheapest.OutputPerMillionTokens,
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *huggingFaceSource) fetchTask(ctx context.Context, task string) ([]registry.ModelInfo, error) {
	url := fmt.Sprintf("https://huggingface.co/api/models?inference_provider=all&pipeline_tag=%s&limit=200", task)
	var entries []hfModelEntry
	if err := s.rest.getJSON(ctx, url, &entries); err != nil {
		return nil, err
	}
	models := make([]registry.ModelInfo, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		models = append(models, registry.ModelInfo{
			ID:        e.ID,
			Name:      e.ID,
			OwnedBy:   orDefault(e.Author, registry.SourceHuggingFace),
			Source:    registry.SourceHuggingFace,
			Task:      registry.Task(task),
			Available: true,
		})
	}
	return models, nil
}

func (s *huggingFaceSource) fetchRouterPricing(ctx context.Context) (map[string][]registry.ProviderPricing, error) {
	var resp hfRouterResponse
	if err := s.rest.getJSON(ctx, "https://router.huggingface.co/v1/models", &resp); err != nil {
		return nil, err
	}
	out := make(map[string][]registry.ProviderPricing, len(resp.Data))
	for _, entry := range resp.Data {
		providers := make([]registry.ProviderPricing, 0, len(entry.Providers))
		for _, p := range entry.Providers {
			pp := registry.ProviderPricing{
				Provider:      p.Provider,
				Status:        p.Status,
				ContextLength: p.ContextLength,
				SupportsTools: p.SupportsTools,
			}
			if p.Pricing != nil {
				pp.InputPerMillionTokens = p.Pricing.Input
				pp.OutputPerMillionTokens = p.Pricing.Output
			}
			providers = append(providers, pp)
		}
		out[entry.ID] = providers
	}
	return out, nil
}

// cheapestLiveProvider picks the live provider with the lowest combined
// input+output per-million-token price (spec.md §4.2: "the cheapest
// live-with-pricing provider becomes the model's top-level pricing").
func cheapestLiveProvider(providers []registry.ProviderPricing) (registry.ProviderPricing, bool) {
	var best registry.ProviderPricing
	found := false
	for _, p := range providers {
		if p.Status != "live" {
			continue
		}
		if p.InputPerMillionTokens == 0 && p.OutputPerMillionTokens == 0 {
			continue
		}
		if !found || (p.InputPerMillionTokens+p.OutputPerMillionTokens) < (best.InputPerMillionTokens+best.OutputPerMillionTokens) {
			best = p
			found = true
		}
	}
	return best, found
}
