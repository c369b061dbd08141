package router

import (
	"strings"

	"github.com/compose-market/agentgate/internal/registry"
)

// ErrorClass classifies an upstream provider error within a fallback
// chain, per spec.md §4.3/§9.
type ErrorClass int

const (
	// ClassSkip means try the next provider in the chain.
	ClassSkip ErrorClass = iota
	// ClassStopLoading means short-circuit the chain and surface a
	// "try again shortly" message without rotating providers — the
	// provider will be hot for subsequent requests (spec.md §9).
	ClassStopLoading
	// ClassFatal means the whole chain should stop and surface a
	// composite error immediately.
	ClassFatal
)

// ClassifyProviderError implements spec.md §4.3's fallback error
// classification: "PRO required", "not supported", "not available", or
// 404 ⇒ try next; "loading"/503 ⇒ stop without rotating.
func ClassifyProviderError(err error) ErrorClass {
	if err == nil {
		return ClassSkip
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "loading") || strings.Contains(msg, "503"):
		return ClassStopLoading
	case strings.Contains(msg, "pro required"),
		strings.Contains(msg, "not supported"),
		strings.Contains(msg, "not available"),
		strings.Contains(msg, "404"):
		return ClassSkip
	default:
		return ClassSkip
	}
}

// ProviderCall is one attempt in a fallback chain.
type ProviderCall func(provider string) (result []byte, contentType string, err error)

// FallbackChain tries each provider in order, skipping on ClassSkip,
// stopping immediately on ClassStopLoading or ClassFatal, per spec.md §9's
// "ordered list ... classify upstream errors ... feed through a small
// state machine. Do not retry on loading."
type FallbackChain struct {
	Task      string
	Providers []string
	Call      ProviderCall
}

// FallbackError is the single composite error produced when a chain
// exhausts, per spec.md §8's boundary behavior: it names the model id
// that failed and a safe substitute suggestion (e.g. for t2i,
// black-forest-labs/FLUX.1-schnell).
type FallbackError struct {
	Task       string
	ModelID    string
	Attempted  []string
	LastErr    error
	Suggestion string
}

func (e *FallbackError) Error() string {
	msg := "all providers for task " + e.Task
	if e.ModelID != "" {
		msg += " (model " + e.ModelID + ")"
	}
	msg += " failed (tried: " + strings.Join(e.Attempted, ", ") + ")"
	if e.Suggestion != "" {
		msg += "; try " + e.Suggestion
	}
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

// SubstituteModelFor returns the documented safe-substitute model id for
// a task's fallback-exhausted error message, per spec.md §8.
func SubstituteModelFor(task registry.Task) string {
	switch task {
	case registry.TaskTextToImage, registry.TaskImageToImage:
		return "black-forest-labs/FLUX.1-schnell"
	case registry.TaskTextToSpeech:
		return "eleven_multilingual_v2"
	case registry.TaskAutomaticSpeechRecog:
		return "openai/whisper-large-v3"
	case registry.TaskTextGeneration, registry.TaskConversational:
		return "meta-llama/Llama-3.3-70B-Instruct"
	default:
		return ""
	}
}

// Run executes the chain and returns the first success, or a
// *FallbackError/stop-loading error if the chain exhausts. modelID is
// the requested model's id (req.Model.ID), threaded into FallbackError
// so the exhausted-chain message names what actually failed.
func (c FallbackChain) Run(modelID, suggestion string) (result []byte, contentType string, provider string, err error) {
	attempted := make([]string, 0, len(c.Providers))
	var lastErr error
	for _, p := range c.Providers {
		attempted = append(attempted, p)
		res, ct, callErr := c.Call(p)
		if callErr == nil {
			return res, ct, p, nil
		}
		lastErr = callErr
		switch ClassifyProviderError(callErr) {
		case ClassStopLoading:
			return nil, "", p, callErr
		case ClassFatal:
			return nil, "", p, &FallbackError{Task: c.Task, ModelID: modelID, Attempted: attempted, LastErr: callErr, Suggestion: suggestion}
		case ClassSkip:
			continue
		}
	}
	return nil, "", "", &FallbackError{Task: c.Task, ModelID: modelID, Attempted: attempted, LastErr: lastErr, Suggestion: suggestion}
}
