package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/compose-market/agentgate/internal/router"
)

// VideoResult is a Veo-family generation result. The handler passes
// VideoURL through as the generator returned it (it does not convert
// inline base64 into a URL itself) and always answers with
// {videoUrl, mimeType} JSON, never raw video bytes (spec.md §4.3).
type VideoResult struct {
	VideoURL string
	MimeType string
}

// VideoGenerator calls a Veo-family model and returns its result.
type VideoGenerator func(ctx context.Context, prompt string, responseModalities []string) (VideoResult, error)

// VideoHandler builds the text-to-video handler (Google Veo shape):
// request {prompt, responseModalities?}, response {videoUrl, mimeType}.
func VideoHandler(generate VideoGenerator) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		prompt, _ := req.Body["prompt"].(string)
		if prompt == "" {
			return router.Outcome{}, fmt.Errorf("video: \"prompt\" is required")
		}
		modalities := []string{"VIDEO"}
		if raw, ok := req.Body["responseModalities"].([]interface{}); ok {
			modalities = modalities[:0]
			for _, m := range raw {
				if s, ok := m.(string); ok {
					modalities = append(modalities, s)
				}
			}
		}

		result, err := generate(req.Ctx, prompt, modalities)
		if err != nil {
			return router.Outcome{}, err
		}
		if result.MimeType == "" {
			result.MimeType = "video/mp4"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"videoUrl": result.VideoURL,
			"mimeType": result.MimeType,
		})
		return router.Outcome{ContentType: "application/json"}, nil
	}
}

// decodeInlineOrFetch implements the "inline-base64-or-URL" pattern
// shared by the Veo/Lyria response shapes: providers either embed the
// media as base64 or hand back a URL to fetch.
func decodeInlineOrFetch(ctx context.Context, inlineB64, url string, fetch func(ctx context.Context, url string) ([]byte, error)) ([]byte, error) {
	if inlineB64 != "" {
		return base64.StdEncoding.DecodeString(inlineB64)
	}
	if url != "" && fetch != nil {
		return fetch(ctx, url)
	}
	return nil, fmt.Errorf("provider returned neither inline data nor a fetch url")
}
