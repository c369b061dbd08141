// Package router is the multimodal inference dispatcher: given a billable
// request it detects the task, picks a per-task handler, and returns a
// streamed or single-shot response with a cost header (spec.md §4.3).
package router

import (
	"context"
	"net/http"

	"github.com/compose-market/agentgate/internal/registry"
)

// TokenUsage is extracted from a provider response, per spec.md §3.
type TokenUsage struct {
	InputTokens     int64
	OutputTokens    int64
	ReasoningTokens int64
	TotalTokens     int64
}

// Request is the normalized inference request handed to a task handler.
type Request struct {
	Ctx          context.Context
	Model        *registry.ModelInfo
	ExplicitTask registry.Task // from query/body, empty if unset
	Body         map[string]interface{}
	RawBody      []byte
}

// Outcome is what a handler reports back so the caller can settle.
type Outcome struct {
	Usage              TokenUsage
	ActualCostAtomic   string
	ContentType        string
	singleShotBody     []byte // set when the handler did not stream directly
}

// Handler executes one task kind. Streaming handlers write directly to w
// and return once the stream (and onFinish accounting) completes;
// single-shot handlers write their own body too, keeping the same
// signature so the dispatcher doesn't need to special-case either.
type Handler func(req Request, w http.ResponseWriter) (Outcome, error)

// HasImage reports whether the request body carries an "image" field,
// used by the image-upgrade rule (spec.md §4.3 step 5).
func (r Request) HasImage() bool {
	if r.Body == nil {
		return false
	}
	v, ok := r.Body["image"]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != ""
}
