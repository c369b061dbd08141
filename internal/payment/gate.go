package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// EventSink receives structured payment-lifecycle events. A nil sink is a
// no-op. The HTTP surface wires this to the process-wide logger.
type EventSink func(level, event string, data map[string]interface{})

// GateError is the transport-agnostic failure returned by Gate operations;
// callers map it onto an HTTP response (402 + challenge, or a plain error).
type GateError struct {
	*FacilitatorError
	IncludeChallenge bool
	Challenge        *Challenge
}

// Gate enforces the verify → work → settle bracket for one billable kind
// of operation (inference call, tool call, connector call). One Gate can
// be shared across concurrent requests; it is safe for concurrent use.
type Gate struct {
	client   *FacilitatorClient
	mode     string
	log      *SettlementLog
	events   EventSink
	outcomes *outcomeCache
}

func NewGate(client *FacilitatorClient, mode string, log *SettlementLog, events EventSink) *Gate {
	return &Gate{
		client:   client,
		mode:     NormalizeMode(mode),
		log:      log,
		events:   events,
		outcomes: newOutcomeCache(),
	}
}

func (g *Gate) Enabled() bool { return IsModeEnabled(g.mode) }

// BracketResult is what Bracket returns on success (including replay).
type BracketResult struct {
	Replayed       bool
	Result         json.RawMessage
	RequiresSettle bool
	Settled        bool
	SettleResponse json.RawMessage
}

// Work is the billable operation itself. It returns the work's output, the
// actual cost incurred (atomic units, <= args.MaxAmountAtomic), and an error
// if the work failed. A work failure does not require settlement.
type Work func(ctx context.Context) (result json.RawMessage, actualAmountAtomic string, err error)

// Bracket performs verify → work → settle for one billable request,
// replaying a cached outcome if the same (paymentData, canonicalRequest)
// pair has already been charged. It never settles twice for the same key.
func (g *Gate) Bracket(ctx context.Context, paymentData string, args PaymentArgs, canonicalRequest []byte, work Work) (BracketResult, *GateError) {
	if !g.Enabled() {
		result, _, err := work(ctx)
		if err != nil {
			return BracketResult{}, &GateError{FacilitatorError: &FacilitatorError{Operation: "work", Code: CodePaymentInvalid, Message: err.Error(), Cause: err}}
		}
		return BracketResult{Result: result}, nil
	}

	if paymentData == "" {
		g.emit("info", "payment_required", map[string]interface{}{"reason": "missing_payment_header"})
		chal, _ := BuildChallenge(args)
		return BracketResult{}, &GateError{
			FacilitatorError: &FacilitatorError{Operation: "verify", Code: CodePaymentRequired, Message: "payment required"},
			IncludeChallenge: true,
			Challenge:        &chal,
		}
	}

	key := ExecutionKey(paymentData, canonicalRequest)
	unlock := g.outcomes.lockForKey(key)
	defer unlock()

	if res, gerr := g.replayIfCached(ctx, paymentData, args, key); res != nil || gerr != nil {
		if gerr != nil {
			return BracketResult{}, gerr
		}
		return *res, nil
	}

	verifyResp, err := g.client.Verify(ctx, paymentData, args)
	if err != nil {
		return BracketResult{}, g.classifyFailure("verify", err, key)
	}
	g.emit("info", "payment_verified", map[string]interface{}{"response": json.RawMessage(verifyResp)})
	g.log.Append("payment_verified", map[string]interface{}{"response": json.RawMessage(verifyResp)})

	result, actualAmount, workErr := work(ctx)
	outcome := executionOutcome{UpdatedAt: time.Now()}
	if workErr != nil {
		outcome.WorkErr = workErr.Error()
		outcome.RequiresSettle = false
		outcome.Settled = true
		g.outcomes.setIfAbsent(key, outcome)
		return BracketResult{}, &GateError{FacilitatorError: &FacilitatorError{Operation: "work", Code: CodePaymentInvalid, Message: workErr.Error(), Cause: workErr}}
	}
	outcome.Result = result
	outcome.RequiresSettle = true
	outcome.SettleAmount = actualAmount
	g.outcomes.setIfAbsent(key, outcome)

	settleResp, err := g.client.Settle(ctx, paymentData, args, actualAmount)
	if err != nil {
		// Work already happened; a settle failure is logged, not surfaced,
		// per the teacher's "fail open on settle" posture — the caller
		// already has their result.
		g.emit("error", "payment_settlement_failed", map[string]interface{}{"err": err.Error()})
		g.log.Append("payment_settlement_failed", map[string]interface{}{"err": err.Error()})
		return BracketResult{Result: result, RequiresSettle: true, Settled: false}, nil
	}
	g.outcomes.markSettled(key, actualAmount, settleResp)
	g.emit("info", "payment_settled", map[string]interface{}{"response": json.RawMessage(settleResp)})
	g.log.Append("payment_settled", map[string]interface{}{"response": json.RawMessage(settleResp)})

	return BracketResult{Result: result, RequiresSettle: true, Settled: true, SettleResponse: settleResp}, nil
}

func (g *Gate) replayIfCached(ctx context.Context, paymentData string, args PaymentArgs, key string) (*BracketResult, *GateError) {
	outcome, ok := g.outcomes.get(key)
	if !ok {
		return nil, nil
	}
	if !outcome.RequiresSettle || outcome.Settled {
		return &BracketResult{Replayed: true, Result: outcome.Result, RequiresSettle: outcome.RequiresSettle, Settled: outcome.Settled, SettleResponse: outcome.SettleResponse}, nil
	}
	// Work happened but settlement hadn't completed yet; retry settle only.
	settleResp, err := g.client.Settle(ctx, paymentData, args, outcome.SettleAmount)
	if err != nil {
		return nil, g.classifyFailure("settle", err, key)
	}
	updated, found := g.outcomes.markSettled(key, outcome.SettleAmount, settleResp)
	if !found {
		updated = outcome
		updated.Settled = true
		updated.SettleResponse = settleResp
	}
	g.emit("info", "payment_settled", map[string]interface{}{"response": json.RawMessage(settleResp), "replay": true})
	return &BracketResult{Replayed: true, Result: updated.Result, RequiresSettle: true, Settled: true, SettleResponse: settleResp}, nil
}

func (g *Gate) classifyFailure(operation string, err error, key string) *GateError {
	facErr, ok := err.(*FacilitatorError)
	if !ok {
		code := CodePaymentFacilitatorUnavailable
		if operation == "settle" {
			code = CodePaymentSettlementUnavailable
		}
		facErr = &FacilitatorError{Operation: operation, StatusCode: http.StatusServiceUnavailable, Code: code, Message: "payment processing failed", Retryable: true, Cause: err}
	}

	g.emit("error", "payment_failed", map[string]interface{}{"operation": operation, "code": facErr.Code, "message": facErr.Message})
	g.log.Append("payment_failed", map[string]interface{}{"operation": operation, "code": facErr.Code, "message": facErr.Message})

	includeChallenge := false
	switch facErr.Code {
	case CodePaymentRequired, CodePaymentInvalid, CodePaymentSettlementFailed:
		includeChallenge = true
	default:
		if facErr.StatusCode >= 400 && facErr.StatusCode < 500 && !facErr.Retryable {
			includeChallenge = true
		}
	}
	return &GateError{FacilitatorError: facErr, IncludeChallenge: includeChallenge}
}

func (g *Gate) emit(level, event string, data map[string]interface{}) {
	if g.events != nil {
		g.events(level, event, data)
	}
}

// StatusCode maps a GateError onto the HTTP status the surface should send.
func (e *GateError) StatusCode() int {
	switch e.Code {
	case CodePaymentRequired, CodePaymentInvalid, CodePaymentSettlementFailed:
		return http.StatusPaymentRequired
	case CodePaymentConfigInvalid:
		return http.StatusServiceUnavailable
	default:
		if e.IncludeChallenge {
			return http.StatusPaymentRequired
		}
		return http.StatusServiceUnavailable
	}
}
