package config

import (
	"fmt"
	"strings"
)

// Validate checks required fields and enum constraints. In non-interactive
// mode, the returned error maps to exit code 2.
func Validate(cfg *Config, nonInteractive bool) error {
	if cfg == nil {
		return fmt.Errorf("CONFIG_INVALID: nil config")
	}
	if err := validateEnums(cfg); err != nil {
		return err
	}
	if cfg.Payment.Mode != "off" && cfg.Payment.FacilitatorURL == "" {
		return fmt.Errorf("CONFIG_INVALID: payment.mode=%q requires payment.facilitator_url\nSet env: X402_FACILITATOR_URL=...", cfg.Payment.Mode)
	}
	return nil
}

func validateEnums(cfg *Config) error {
	if !stringIn(cfg.Payment.Mode, X402Modes) {
		return fmt.Errorf("CONFIG_INVALID: payment.mode=%q; allowed: %s", cfg.Payment.Mode, strings.Join(X402Modes, ", "))
	}
	if !stringIn(cfg.Payment.Scheme, PaymentSchemes) {
		return fmt.Errorf("CONFIG_INVALID: payment.scheme=%q; allowed: %s", cfg.Payment.Scheme, strings.Join(PaymentSchemes, ", "))
	}
	if !stringIn(cfg.Secrets.Provider, SecretsProviders) {
		return fmt.Errorf("CONFIG_INVALID: secrets.provider=%q; allowed: %s", cfg.Secrets.Provider, strings.Join(SecretsProviders, ", "))
	}
	if !stringIn(cfg.Security.Auth.Mode, SecurityAuthModes) {
		return fmt.Errorf("CONFIG_INVALID: security.auth.mode=%q; allowed: %s", cfg.Security.Auth.Mode, strings.Join(SecurityAuthModes, ", "))
	}
	return nil
}
