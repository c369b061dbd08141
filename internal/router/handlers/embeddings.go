package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/compose-market/agentgate/internal/router"
)

// Embedder computes embedding vectors for a batch of inputs.
type Embedder func(ctx context.Context, inputs []string) ([][]float32, router.TokenUsage, error)

// EmbeddingsHandler builds the feature-extraction / sentence-similarity
// handler per spec.md §4.3: feature-extraction requests {inputs}, while
// sentence-similarity requests {source_sentence, sentences[]}; both
// respond {embeddings, dimensions}.
func EmbeddingsHandler(embed Embedder) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		inputs, err := extractInputs(req.Body)
		if err != nil {
			return router.Outcome{}, err
		}

		vectors, usage, err := embed(req.Ctx, inputs)
		if err != nil {
			return router.Outcome{}, err
		}

		dimensions := 0
		if len(vectors) > 0 {
			dimensions = len(vectors[0])
		}
		body, err := json.Marshal(map[string]interface{}{
			"embeddings": vectors,
			"dimensions": dimensions,
		})
		if err != nil {
			return router.Outcome{}, err
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return router.Outcome{Usage: usage, ContentType: "application/json"}, nil
	}
}

// extractInputs accepts either the feature-extraction shape
// ({"inputs": string | []string}) or the sentence-similarity shape
// ({"source_sentence": string, "sentences": []string}), per spec.md §4.3.
func extractInputs(body map[string]interface{}) ([]string, error) {
	if _, ok := body["source_sentence"]; ok {
		return extractSentenceSimilarity(body)
	}
	if _, ok := body["inputs"]; ok {
		return extractFeatureExtraction(body["inputs"])
	}
	return nil, fmt.Errorf("embeddings: either \"inputs\" or \"source_sentence\"/\"sentences\" is required")
}

func extractSentenceSimilarity(body map[string]interface{}) ([]string, error) {
	source, ok := body["source_sentence"].(string)
	if !ok || source == "" {
		return nil, fmt.Errorf("embeddings: \"source_sentence\" must be a non-empty string")
	}
	raw, ok := body["sentences"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("embeddings: \"sentences\" must be a non-empty array of strings")
	}
	inputs := make([]string, 0, len(raw)+1)
	inputs = append(inputs, source)
	for _, item := range raw {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("embeddings: \"sentences\" entries must be non-empty strings")
		}
		inputs = append(inputs, s)
	}
	return inputs, nil
}

func extractFeatureExtraction(v interface{}) ([]string, error) {
	switch v := v.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("embeddings: \"inputs\" must not be empty")
		}
		return []string{v}, nil
	case []interface{}:
		inputs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("embeddings: \"inputs\" entries must be non-empty strings")
			}
			inputs = append(inputs, s)
		}
		if len(inputs) == 0 {
			return nil, fmt.Errorf("embeddings: \"inputs\" must not be empty")
		}
		return inputs, nil
	default:
		return nil, fmt.Errorf("embeddings: \"inputs\" is required (string or array of strings)")
	}
}
