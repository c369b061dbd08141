package router

import (
	"errors"
	"strings"
	"testing"
)

func TestFallbackChainSkipsOnNotSupported(t *testing.T) {
	var tried []string
	chain := FallbackChain{
		Task:      "text-to-image",
		Providers: []string{"hf-inference", "wavespeed", "replicate"},
		Call: func(provider string) ([]byte, string, error) {
			tried = append(tried, provider)
			if provider == "wavespeed" {
				return []byte("img"), "image/png", nil
			}
			return nil, "", errors.New("model not supported on this provider")
		},
	}

	result, _, provider, err := chain.Run("flux-test-model", "a different model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != "wavespeed" || string(result) != "img" {
		t.Fatalf("expected wavespeed to serve after hf-inference skip, got provider=%s result=%s", provider, result)
	}
	if len(tried) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %v", tried)
	}
}

func TestFallbackChainStopsOnLoadingWithoutRotating(t *testing.T) {
	var tried []string
	chain := FallbackChain{
		Task:      "text-to-image",
		Providers: []string{"hf-inference", "wavespeed", "replicate"},
		Call: func(provider string) ([]byte, string, error) {
			tried = append(tried, provider)
			return nil, "", errors.New("model is loading, 503")
		},
	}

	_, _, _, err := chain.Run("flux-test-model", "wait and retry")
	if err == nil {
		t.Fatal("expected loading error to propagate")
	}
	if len(tried) != 1 {
		t.Fatalf("loading must short-circuit without rotating, tried %v", tried)
	}
}

func TestFallbackChainExhaustsToCompositeError(t *testing.T) {
	chain := FallbackChain{
		Task:      "text-to-image",
		Providers: []string{"hf-inference", "wavespeed"},
		Call: func(provider string) ([]byte, string, error) {
			return nil, "", errors.New("404 not found")
		},
	}

	_, _, _, err := chain.Run("flux-test-model", "a smaller model")
	var fbErr *FallbackError
	if !errors.As(err, &fbErr) {
		t.Fatalf("expected *FallbackError, got %T: %v", err, err)
	}
	if len(fbErr.Attempted) != 2 {
		t.Fatalf("expected both providers attempted, got %v", fbErr.Attempted)
	}
	if fbErr.ModelID != "flux-test-model" {
		t.Fatalf("expected ModelID to be threaded through, got %q", fbErr.ModelID)
	}
	if !strings.Contains(err.Error(), "flux-test-model") {
		t.Fatalf("expected error message to name the failing model id, got %q", err.Error())
	}
}
