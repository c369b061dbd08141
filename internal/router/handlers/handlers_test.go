package handlers

import "testing"

func TestEstimateTTSTokens(t *testing.T) {
	cases := map[string]int64{
		"":      0,
		"abcd":  1,
		"abcde": 2,
		"abcdefgh": 2,
	}
	for in, want := range cases {
		if got := EstimateTTSTokens(in); got != want {
			t.Errorf("EstimateTTSTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestEstimateASRTokens(t *testing.T) {
	cases := map[int]int64{
		0:     0,
		1:     1,
		16000: 1,
		16001: 2,
		32000: 2,
	}
	for in, want := range cases {
		if got := EstimateASRTokens(in); got != want {
			t.Errorf("EstimateASRTokens(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestExtractInputsFeatureExtractionString(t *testing.T) {
	out, err := extractInputs(map[string]interface{}{"inputs": "hello"})
	if err != nil || len(out) != 1 || out[0] != "hello" {
		t.Fatalf("unexpected result: %v, %v", out, err)
	}
}

func TestExtractInputsFeatureExtractionArray(t *testing.T) {
	out, err := extractInputs(map[string]interface{}{"inputs": []interface{}{"a", "b"}})
	if err != nil || len(out) != 2 {
		t.Fatalf("unexpected result: %v, %v", out, err)
	}
}

func TestExtractInputsSentenceSimilarity(t *testing.T) {
	out, err := extractInputs(map[string]interface{}{
		"source_sentence": "hello",
		"sentences":        []interface{}{"a", "b"},
	})
	if err != nil || len(out) != 3 || out[0] != "hello" {
		t.Fatalf("unexpected result: %v, %v", out, err)
	}
}

func TestExtractInputsMissing(t *testing.T) {
	if _, err := extractInputs(map[string]interface{}{}); err == nil {
		t.Fatal("expected error for missing input")
	}
}
