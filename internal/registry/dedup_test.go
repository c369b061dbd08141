package registry

import "testing"

func TestNormalizeStripsPrefixAndSuffix(t *testing.T) {
	cases := map[string]string{
		"meta-llama/Llama-3.3-70B-Instruct": "llama3370b",
		"mistralai/Mistral-7B-latest":       "mistral7b",
		"gpt-4o":                            "gpt4o",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeduplicatePicksMinPriorityEntry(t *testing.T) {
	// Scenario from spec.md §8.2: HF and ASI-Cloud both carry the same
	// model; ASI-Cloud (priority 1) must win.
	models := []ModelInfo{
		{ID: "meta-llama/Llama-3.3-70B-Instruct", Source: SourceHuggingFace},
		{ID: "meta-llama/llama-3.3-70b-instruct", Source: SourceASICloud},
	}
	out := Deduplicate(models)
	if len(out) != 1 {
		t.Fatalf("expected exactly one deduped entry, got %d", len(out))
	}
	if out[0].Source != SourceASICloud {
		t.Fatalf("expected asi-cloud to win the tie, got %s", out[0].Source)
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	models := []ModelInfo{
		{ID: "gpt-4o", Source: SourceOpenAI},
		{ID: "gpt-4o-2024-08-06", Source: SourceOpenRouter},
		{ID: "claude-3-5-sonnet", Source: SourceAnthropic},
	}
	once := Deduplicate(models)
	twice := Deduplicate(once)
	if len(once) != len(twice) {
		t.Fatalf("dedup not idempotent: once=%d twice=%d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID || once[i].Source != twice[i].Source {
			t.Fatalf("dedup not idempotent at index %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestDeduplicateTieBreaksOnIDWhenPriorityEqual(t *testing.T) {
	// openai and anthropic share priority 3; both raw ids normalize to the
	// same key, so the ASC id comparison (not source) decides the winner.
	models := []ModelInfo{
		{ID: "model-a", Source: SourceOpenAI},
		{ID: "Model-A", Source: SourceAnthropic},
	}
	out := Deduplicate(models)
	if len(out) != 1 || out[0].ID != "Model-A" {
		t.Fatalf("expected id ASC tie-break to keep %q, got %+v", "Model-A", out)
	}
}

func TestGetModelInfoRoundTrips(t *testing.T) {
	reg := &ModelRegistry{Models: []ModelInfo{{ID: "m1"}, {ID: "m2"}}}
	for _, m := range reg.Models {
		got, ok := reg.GetModelInfo(m.ID)
		if !ok || got.ID != m.ID {
			t.Fatalf("GetModelInfo(%q) did not round-trip: %+v ok=%v", m.ID, got, ok)
		}
	}
}
