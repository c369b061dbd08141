package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/compose-market/agentgate/internal/router"
)

// AudioGenerator calls a Lyria-family music/audio model.
type AudioGenerator func(ctx context.Context, prompt string) (data []byte, contentType string, err error)

// AudioHandler builds the text-to-audio handler (Google Lyria shape).
func AudioHandler(generate AudioGenerator) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		prompt, _ := req.Body["prompt"].(string)
		if prompt == "" {
			return router.Outcome{}, fmt.Errorf("audio: \"prompt\" is required")
		}

		data, contentType, err := generate(req.Ctx, prompt)
		if err != nil {
			return router.Outcome{}, err
		}
		if contentType == "" {
			contentType = "audio/wav"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return router.Outcome{ContentType: contentType}, nil
	}
}
