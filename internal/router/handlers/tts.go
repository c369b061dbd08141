package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/compose-market/agentgate/internal/registry/providers/elevenlabs"
	"github.com/compose-market/agentgate/internal/router"
)

// TTSClient is the subset of elevenlabs.Client the handler needs, kept
// as an interface so tests can fake it.
type TTSClient interface {
	SynthesizeWithVoice(ctx context.Context, text, voiceID string) ([]byte, error)
}

var _ TTSClient = (*elevenlabs.Client)(nil)

// TTSHandler builds the text-to-speech handler (spec.md §4.3): cost is
// estimated as ceil(len(text)/4) tokens, charged against AUDIO_TTS.
func TTSHandler(client TTSClient, defaultVoiceID string) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		text, _ := req.Body["text"].(string)
		if text == "" {
			return router.Outcome{}, fmt.Errorf("tts: \"text\" is required")
		}
		voiceID := defaultVoiceID
		if v, ok := req.Body["voice_id"].(string); ok && v != "" {
			voiceID = v
		}

		audio, err := client.SynthesizeWithVoice(req.Ctx, text, voiceID)
		if err != nil {
			return router.Outcome{}, err
		}

		w.Header().Set("Content-Type", "audio/wav")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio)

		tokens := EstimateTTSTokens(text)
		return router.Outcome{
			Usage:       router.TokenUsage{OutputTokens: tokens, TotalTokens: tokens},
			ContentType: "audio/wav",
		}, nil
	}
}

// EstimateTTSTokens implements spec.md §4.3's ceil(len/4) token estimate.
func EstimateTTSTokens(text string) int64 {
	n := int64(len(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
