// Package payment implements the x402 "upto" micropayment bracket that
// gates every billable gateway operation: verify a client's payment
// authorization before doing work, settle the actual cost once the work
// is known, and never do either twice for the same request.
package payment

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

const (
	HeaderPaymentRequired = "X-Payment-Required"
	HeaderPayment         = "X-Payment"
	HeaderPaymentResponse = "X-Payment-Response"

	ModeOff      = "off"
	ModeOn       = "on"
	ModeRequired = "required"

	SchemeExact = "exact"
	SchemeUpto  = "upto"

	CodePaymentRequired               = "PAYMENT_REQUIRED"
	CodePaymentInvalid                = "PAYMENT_INVALID"
	CodePaymentFacilitatorUnavailable = "PAYMENT_FACILITATOR_UNAVAILABLE"
	CodePaymentSettlementFailed       = "PAYMENT_SETTLEMENT_FAILED"
	CodePaymentSettlementUnavailable  = "PAYMENT_SETTLEMENT_UNAVAILABLE"
	CodePaymentConfigInvalid          = "PAYMENT_CONFIG_INVALID"

	// ErrorPaymentRequired is the top-level "error" field of a 402 challenge body.
	ErrorPaymentRequired = "payment_required"
)

// PaymentArgs describes a single billable operation as spec.md §3 defines it.
type PaymentArgs struct {
	Method            string
	ResourceURL       string
	Network           string // CAIP-2, e.g. "eip155:8453"
	Scheme            string // "exact" | "upto"
	MaxAmountAtomic   string // ceiling the client authorized, base units
	Asset             string // contract address or asset id
	PayTo             string
	FacilitatorHandle string
	PaymentData       string // opaque client-presented X-Payment header value
}

// Validate mirrors the teacher's Requirement.Validate but generalized to
// an "upto" ceiling rather than a fixed amount.
func (p PaymentArgs) Validate() error {
	scheme := strings.ToLower(strings.TrimSpace(p.Scheme))
	switch scheme {
	case SchemeExact, SchemeUpto:
	default:
		return fmt.Errorf("payment scheme must be one of: %s, %s", SchemeExact, SchemeUpto)
	}
	if strings.TrimSpace(p.Network) == "" || !IsCAIP2Network(p.Network) {
		return fmt.Errorf("payment network must be a CAIP-2 identifier")
	}
	amt := strings.TrimSpace(p.MaxAmountAtomic)
	if amt == "" {
		return fmt.Errorf("payment max amount is required")
	}
	v := new(big.Int)
	if _, ok := v.SetString(amt, 10); !ok || v.Sign() <= 0 {
		return fmt.Errorf("payment max amount must be a positive integer")
	}
	if strings.TrimSpace(p.Asset) == "" {
		return fmt.Errorf("payment asset is required")
	}
	if strings.TrimSpace(p.PayTo) == "" {
		return fmt.Errorf("payment payTo is required")
	}
	if strings.TrimSpace(p.ResourceURL) == "" {
		return fmt.Errorf("payment resource is required")
	}
	return nil
}

// PaymentResult is what the gate hands back to callers after a successful verify.
type PaymentResult struct {
	Verified       bool
	ExecutionKey   string // signature + ":" + hex(sha256(canonical request bytes))
	MaxAmountAtomic string
	Network        string
	Asset          string
	PayTo          string
}

// Receipt is what Settle returns once the facilitator confirms payment.
type Receipt struct {
	Settled       bool
	ActualAmount  string
	FacilitatorTx json.RawMessage
}

// Challenge is the body returned alongside HTTP 402 per spec.md §6.
type Challenge struct {
	Accepts []ChallengeItem `json:"accepts"`
	Error   string          `json:"error"`
}

type ChallengeItem struct {
	Scheme    string `json:"scheme"`
	Network   string `json:"network"`
	Asset     string `json:"asset"`
	MaxAmount string `json:"maxAmount"`
	PayTo     string `json:"payTo"`
	Resource  string `json:"resource"`
}

// BuildChallenge produces the 402 challenge body for a given billable operation.
func BuildChallenge(p PaymentArgs) (Challenge, error) {
	if err := p.Validate(); err != nil {
		return Challenge{}, err
	}
	return Challenge{
		Accepts: []ChallengeItem{
			{
				Scheme:    strings.ToLower(strings.TrimSpace(p.Scheme)),
				Network:   strings.TrimSpace(p.Network),
				Asset:     strings.TrimSpace(p.Asset),
				MaxAmount: strings.TrimSpace(p.MaxAmountAtomic),
				PayTo:     strings.TrimSpace(p.PayTo),
				Resource:  strings.TrimSpace(p.ResourceURL),
			},
		},
		Error: ErrorPaymentRequired,
	}, nil
}

func NormalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", ModeOff:
		return ModeOff
	case ModeOn:
		return ModeOn
	case ModeRequired:
		return ModeRequired
	default:
		return ModeOff
	}
}

func IsModeValid(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeOff, ModeOn, ModeRequired:
		return true
	default:
		return false
	}
}

func IsModeEnabled(mode string) bool {
	switch NormalizeMode(mode) {
	case ModeOn, ModeRequired:
		return true
	default:
		return false
	}
}

// IsCAIP2Network validates the conservative "<namespace>:<reference>" shape.
func IsCAIP2Network(network string) bool {
	network = strings.TrimSpace(network)
	parts := strings.Split(network, ":")
	if len(parts) != 2 {
		return false
	}
	ns, ref := parts[0], parts[1]
	if len(ns) == 0 || len(ns) > 32 || len(ref) == 0 || len(ref) > 128 {
		return false
	}
	for _, r := range ns {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	for _, r := range ref {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// FacilitatorError is returned by every Client operation on failure.
type FacilitatorError struct {
	Operation  string
	StatusCode int
	Retryable  bool
	Code       string
	Message    string
	Body       string
	Cause      error
}

func (e *FacilitatorError) Error() string {
	if e == nil {
		return "<nil FacilitatorError>"
	}
	if e.Code == "" && e.Message == "" {
		return "facilitator request failed"
	}
	if e.Code == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func (e *FacilitatorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
