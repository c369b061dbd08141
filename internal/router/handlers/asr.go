package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/compose-market/agentgate/internal/registry/providers/elevenlabs"
	"github.com/compose-market/agentgate/internal/router"
)

// ASRClient is the subset of elevenlabs.Client the handler needs.
type ASRClient interface {
	Transcribe(ctx context.Context, relPath string, data []byte) (string, error)
}

var _ ASRClient = (*elevenlabs.Client)(nil)

// ASRHandler builds the automatic-speech-recognition handler (spec.md
// §4.3): cost is estimated as ceil(bytes/16000) "second-tokens", charged
// against AUDIO_ASR. Audio is accepted as base64 in the "audio" field.
func ASRHandler(client ASRClient) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		encoded, _ := req.Body["audio"].(string)
		if encoded == "" {
			return router.Outcome{}, fmt.Errorf("asr: \"audio\" is required")
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return router.Outcome{}, fmt.Errorf("asr: invalid base64 audio: %w", err)
		}

		fileName, _ := req.Body["filename"].(string)
		if fileName == "" {
			fileName = "audio.wav"
		}

		transcript, err := client.Transcribe(req.Ctx, fileName, data)
		if err != nil {
			return router.Outcome{}, err
		}

		body, _ := json.Marshal(map[string]string{"text": transcript})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)

		tokens := EstimateASRTokens(len(data))
		return router.Outcome{
			Usage:       router.TokenUsage{InputTokens: tokens, TotalTokens: tokens},
			ContentType: "application/json",
		}, nil
	}
}

// EstimateASRTokens implements spec.md §4.3's ceil(bytes/16000) estimate.
func EstimateASRTokens(byteLen int) int64 {
	if byteLen == 0 {
		return 0
	}
	return (int64(byteLen) + 15999) / 16000
}
