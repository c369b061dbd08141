package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/compose-market/agentgate/internal/registry"
)

type googleModelEntry struct {
	Name               string   `json:"name"`
	DisplayName        string   `json:"displayName"`
	InputTokenLimit    int      `json:"inputTokenLimit"`
	SupportedMethods   []string `json:"supportedGenerationMethods"`
}

type googleModelsResponse struct {
	Models []googleModelEntry `json:"models"`
}

// googleSource implements spec.md §4.2's Google fetcher and §4.3's
// Google-specific task heuristics (veo/lyria/imagen/embedContent/
// bidiGenerateContent), which differ enough from the generic name
// heuristics to warrant their own classifier.
type googleSource struct {
	apiKey string
	rest   *restClient
}

func NewGoogle(apiKey string) registry.Source {
	return &googleSource{apiKey: apiKey, rest: newRESTClient(nil)}
}

func (s *googleSource) Name() string { return registry.SourceGoogle }

func (s *googleSource) Fetch(ctx context.Context) ([]registry.ModelInfo, error) {
	if s.apiKey == "" {
		return nil, nil
	}
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models?key=%s", s.apiKey)
	var resp googleModelsResponse
	if err := s.rest.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	models := make([]registry.ModelInfo, 0, len(resp.Models))
	for _, e := range resp.Models {
		id := strings.TrimPrefix(e.Name, "models/")
		if id == "" {
			continue
		}
		models = append(models, registry.ModelInfo{
			ID:            id,
			Name:          orDefault(e.DisplayName, id),
			OwnedBy:       registry.SourceGoogle,
			Source:        registry.SourceGoogle,
			Task:          classifyGoogle(id, e.SupportedMethods),
			ContextLength: e.InputTokenLimit,
			Available:     true,
		})
	}
	return models, nil
}

// classifyGoogle implements spec.md §4.3's Google-specific branch of the
// task-detection chain: veo → video, lyria → audio, imagen/-image →
// image, embedContent method → embeddings, bidiGenerateContent → live
// conversational.
func classifyGoogle(id string, methods []string) registry.Task {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "veo"):
		return registry.TaskTextToVideo
	case strings.Contains(lower, "lyria"):
		return registry.TaskTextToAudio
	case strings.Contains(lower, "imagen") || strings.HasSuffix(lower, "-image"):
		return registry.TaskTextToImage
	}
	for _, m := range methods {
		switch m {
		case "embedContent":
			return registry.TaskFeatureExtraction
		case "bidiGenerateContent":
			return registry.TaskConversational
		}
	}
	return registry.TaskTextGeneration
}
