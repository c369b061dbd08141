// Package handlers holds the per-task inference handlers dispatched by
// internal/router, grounded on the teacher's internal/mistral/client.go
// streaming/backoff idioms and internal/elevenlabs/client.go error
// mapping, per SPEC_FULL.md §4.3.
package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/compose-market/agentgate/internal/router"
)

// ChatStreamer opens a provider chat-completion stream and hands each
// chunk to onChunk; it returns the final usage once the stream ends.
type ChatStreamer func(ctx context.Context, body map[string]interface{}, onChunk func(delta string)) (router.TokenUsage, error)

// TextHandler builds a streaming text-generation handler (spec.md §4.3):
// sends SSE headers before the first byte, writes each provider delta as
// one SSE chunk as it arrives (deltas are not re-paced; smoothedWordEmitter
// is not used here), and runs onFinish once the stream ends (settlement
// happens in onFinish regardless of client disconnect).
func TextHandler(stream ChatStreamer, onFinish func(req router.Request, usage router.TokenUsage, err error)) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, _ := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)

		var produced bytes.Buffer
		usage, streamErr := stream(req.Ctx, req.Body, func(delta string) {
			if delta == "" {
				return
			}
			produced.WriteString(delta)
			writeSSEChunk(w, delta)
			if flusher != nil {
				flusher.Flush()
			}
		})

		// onFinish must run on whatever was produced even if the client
		// disconnected mid-stream or the provider errored partway through.
		if onFinish != nil {
			onFinish(req, usage, streamErr)
		}

		if streamErr != nil && produced.Len() == 0 {
			return router.Outcome{}, streamErr
		}
		return router.Outcome{Usage: usage, ContentType: "text/event-stream"}, nil
	}
}

func writeSSEChunk(w http.ResponseWriter, delta string) {
	payload, err := json.Marshal(map[string]string{"delta": delta})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// smoothedWordEmitter paces word emission so a fast provider response
// doesn't arrive as one indigestible burst, mirroring the perceived
// smoothness of a token-by-token stream.
func smoothedWordEmitter(scanner *bufio.Scanner, interval time.Duration, emit func(string)) {
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		emit(scanner.Text() + " ")
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}
