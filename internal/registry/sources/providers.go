package sources

import "github.com/compose-market/agentgate/internal/registry"

// NewOpenAI returns the OpenAI /v1/models fetcher.
func NewOpenAI(apiKey string) registry.Source {
	return newOpenAIShapedSource(registry.SourceOpenAI, "https://api.openai.com/v1/models", apiKey)
}

// NewAnthropic returns the Anthropic /v1/models fetcher.
func NewAnthropic(apiKey string) registry.Source {
	return newOpenAIShapedSource(registry.SourceAnthropic, "https://api.anthropic.com/v1/models", apiKey)
}

// NewOpenRouter returns the OpenRouter /api/v1/models fetcher.
func NewOpenRouter(apiKey string) registry.Source {
	return newOpenAIShapedSource(registry.SourceOpenRouter, "https://openrouter.ai/api/v1/models", apiKey)
}

// NewAIML returns the AI/ML API /v1/models fetcher.
func NewAIML(apiKey string) registry.Source {
	return newOpenAIShapedSource(registry.SourceAIML, "https://api.aimlapi.com/v1/models", apiKey)
}

// NewASIOne returns the Fetch.ai ASI-One /v1/models fetcher.
func NewASIOne(apiKey string) registry.Source {
	return newOpenAIShapedSource(registry.SourceASIOne, "https://api.asi1.ai/v1/models", apiKey)
}

// NewASICloud returns the ASI Cloud /v1/models fetcher — source priority
// 1, so it wins every dedup tie against the other seven (spec.md §4.2).
func NewASICloud(apiKey string) registry.Source {
	return newOpenAIShapedSource(registry.SourceASICloud, "https://api.asi-cloud.ai/v1/models", apiKey)
}
