package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testArgs(resource string) PaymentArgs {
	return PaymentArgs{
		Method:          "POST",
		ResourceURL:     resource,
		Network:         "eip155:8453",
		Scheme:          SchemeUpto,
		MaxAmountAtomic: "5000",
		Asset:           "0xusdc",
		PayTo:           "0xrecipient",
	}
}

func newFakeFacilitator(t *testing.T, verifyCalls, settleCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/x402/verify":
			verifyCalls.Add(1)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/v1/x402/settle":
			settleCalls.Add(1)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"settled":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestBracketMissingPaymentReturnsChallenge(t *testing.T) {
	gate := NewGate(NewFacilitatorClient("http://unused", "", nil), ModeOn, NewSettlementLog("", nil), nil)
	_, gerr := gate.Bracket(context.Background(), "", testArgs("https://gw/api/inference"), []byte(`{}`), func(ctx context.Context) (json.RawMessage, string, error) {
		t.Fatal("work should not run without payment")
		return nil, "", nil
	})
	if gerr == nil || gerr.Code != CodePaymentRequired {
		t.Fatalf("expected PAYMENT_REQUIRED, got %+v", gerr)
	}
	if !gerr.IncludeChallenge || gerr.StatusCode() != http.StatusPaymentRequired {
		t.Fatalf("expected 402 challenge, got %+v", gerr)
	}
}

func TestBracketVerifyThenSettleOnce(t *testing.T) {
	var verifyCalls, settleCalls atomic.Int32
	srv := newFakeFacilitator(t, &verifyCalls, &settleCalls)
	defer srv.Close()

	gate := NewGate(NewFacilitatorClient(srv.URL, "", nil), ModeOn, NewSettlementLog("", nil), nil)
	args := testArgs("https://gw/api/inference")
	body := []byte(`{"messages":[{"role":"user","content":"hi"}]}`)

	workCalls := 0
	res, gerr := gate.Bracket(context.Background(), "sig-abc", args, body, func(ctx context.Context) (json.RawMessage, string, error) {
		workCalls++
		return json.RawMessage(`{"text":"hello"}`), "1200", nil
	})
	if gerr != nil {
		t.Fatalf("unexpected gate error: %v", gerr)
	}
	if !res.Settled || workCalls != 1 {
		t.Fatalf("expected settled result with single work call, got %+v workCalls=%d", res, workCalls)
	}
	if verifyCalls.Load() != 1 || settleCalls.Load() != 1 {
		t.Fatalf("expected exactly one verify and one settle, got verify=%d settle=%d", verifyCalls.Load(), settleCalls.Load())
	}

	// Replay with the same signature+body must not re-run work or re-settle.
	res2, gerr2 := gate.Bracket(context.Background(), "sig-abc", args, body, func(ctx context.Context) (json.RawMessage, string, error) {
		workCalls++
		t.Fatal("work must not run again on replay")
		return nil, "", nil
	})
	if gerr2 != nil {
		t.Fatalf("unexpected gate error on replay: %v", gerr2)
	}
	if !res2.Replayed || workCalls != 1 {
		t.Fatalf("expected replayed outcome without re-running work, got %+v workCalls=%d", res2, workCalls)
	}
	if verifyCalls.Load() != 1 || settleCalls.Load() != 1 {
		t.Fatalf("replay must not call facilitator again, got verify=%d settle=%d", verifyCalls.Load(), settleCalls.Load())
	}
}

func TestBracketDisabledSkipsPaymentEntirely(t *testing.T) {
	gate := NewGate(NewFacilitatorClient("http://unused", "", nil), ModeOff, NewSettlementLog("", nil), nil)
	res, gerr := gate.Bracket(context.Background(), "", testArgs("https://gw/api/inference"), []byte(`{}`), func(ctx context.Context) (json.RawMessage, string, error) {
		return json.RawMessage(`{"ok":true}`), "0", nil
	})
	if gerr != nil {
		t.Fatalf("unexpected error with payment disabled: %v", gerr)
	}
	if string(res.Result) != `{"ok":true}` {
		t.Fatalf("unexpected result: %s", res.Result)
	}
}

func TestCalculateInferenceCostZeroTokens(t *testing.T) {
	cb := CalculateInferenceCost(0, 0, ProviderPricing{InputPerMillion: 300, OutputPerMillion: 900})
	if cb.TotalAtomic != 0 {
		t.Fatalf("expected zero cost for zero tokens, got %+v", cb)
	}
}

func TestCalculateInferenceCostNoPricingChargesOnlyPlatformFee(t *testing.T) {
	cb := CalculateInferenceCost(1_000_000, 1_000_000, ProviderPricing{})
	if cb.ProviderCostAtomic != 0 {
		t.Fatalf("expected zero provider cost with no pricing entry, got %+v", cb)
	}
	if cb.PlatformFeeAtomic != 2*PlatformFeePerMillionTokensAtomic {
		t.Fatalf("unexpected platform fee: %+v", cb)
	}
}

func TestCapAtCeilingNeverExceedsAuthorized(t *testing.T) {
	if got := CapAtCeiling(10_000, "5000"); got != 5000 {
		t.Fatalf("expected capped amount 5000, got %d", got)
	}
	if got := CapAtCeiling(3_000, "5000"); got != 3000 {
		t.Fatalf("expected uncapped amount 3000, got %d", got)
	}
}
