package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSource struct {
	name   string
	models []ModelInfo
	err    error
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Fetch(ctx context.Context) ([]ModelInfo, error) {
	return f.models, f.err
}

func TestCacheRefreshDedupesAcrossSources(t *testing.T) {
	srcA := &fakeSource{name: SourceHuggingFace, models: []ModelInfo{{ID: "meta-llama/Llama-3-8B", Source: SourceHuggingFace}}}
	srcB := &fakeSource{name: SourceASICloud, models: []ModelInfo{{ID: "llama-3-8b", Source: SourceASICloud}}}
	cache := NewCache([]Source{srcA, srcB}, nil, time.Hour, nil)

	reg, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reg.Models) != 1 || reg.Models[0].Source != SourceASICloud {
		t.Fatalf("expected single asi-cloud-won entry, got %+v", reg.Models)
	}
}

func TestCacheSourceFailureDoesNotFailAggregate(t *testing.T) {
	ok := &fakeSource{name: SourceOpenAI, models: []ModelInfo{{ID: "gpt-4o", Source: SourceOpenAI}}}
	failing := &fakeSource{name: SourceAnthropic, err: errors.New("boom")}
	cache := NewCache([]Source{ok, failing}, nil, time.Hour, nil)

	reg, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("aggregate must not fail when one source errors: %v", err)
	}
	if len(reg.Models) != 1 {
		t.Fatalf("expected the surviving source's model, got %+v", reg.Models)
	}
	found := false
	for _, s := range reg.Sources {
		if s == SourceAnthropic {
			found = true
		}
	}
	if found {
		t.Fatalf("failing source must not appear in sources[]: %v", reg.Sources)
	}
}

func TestCacheGetReusesSnapshotWithinTTL(t *testing.T) {
	calls := 0
	src := &countingSource{name: SourceOpenAI, calls: &calls}
	cache := NewCache([]Source{src}, nil, time.Hour, nil)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one fetch within TTL, got %d", calls)
	}
}

type countingSource struct {
	name  string
	calls *int
}

func (c *countingSource) Name() string { return c.name }
func (c *countingSource) Fetch(ctx context.Context) ([]ModelInfo, error) {
	*c.calls++
	return []ModelInfo{{ID: "m", Source: c.name}}, nil
}
