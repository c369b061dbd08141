package config

import (
	"strings"
	"testing"
)

// TestValidate_PaymentModeRequiresFacilitator verifies enabling payment mode
// without a facilitator URL yields an actionable CONFIG_INVALID error.
func TestValidate_PaymentModeRequiresFacilitator(t *testing.T) {
	cfg := Default()
	cfg.Payment.Mode = "on"
	cfg.Payment.FacilitatorURL = ""

	err := Validate(&cfg, true)
	if err == nil {
		t.Fatal("expected error when facilitator_url missing under payment.mode=on")
	}
	msg := err.Error()
	if !strings.Contains(msg, "CONFIG_INVALID") {
		t.Errorf("error should contain CONFIG_INVALID, got: %s", msg)
	}
	if !strings.Contains(msg, "X402_FACILITATOR_URL") {
		t.Errorf("error should be actionable (Set env X402_FACILITATOR_URL), got: %s", msg)
	}
}

// TestValidate_RejectsUnknownPaymentMode verifies enum validation.
func TestValidate_RejectsUnknownPaymentMode(t *testing.T) {
	cfg := Default()
	cfg.Payment.Mode = "sometimes"

	err := Validate(&cfg, true)
	if err == nil {
		t.Fatal("expected error for invalid payment.mode")
	}
}

// TestValidate_DefaultConfigIsValid verifies Default() passes Validate as-is.
func TestValidate_DefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg, true); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}
