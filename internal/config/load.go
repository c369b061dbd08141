package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Options configures config loading. ConfigPath is relative to RootDir if not absolute.
type Options struct {
	ConfigPath     string // path to agentgate.yaml
	RootDir        string // directory the gateway runs from
	StateDir       string // state directory (default: <root>/.agentgate)
	NonInteractive bool   // if true, fail fast with actionable errors
	SkipValidate   bool   // if true, skip validation (e.g. for config print)
	Overrides      *Overrides
}

// Overrides holds CLI flag values that take precedence over env/file/defaults.
// Only non-nil fields are applied; callers pass nil for flags not explicitly set.
type Overrides struct {
	ServerListen    *string
	PaymentMode     *string
	FacilitatorURL  *string
	PaymentPayTo    *string
	HuggingFaceKey  *string
}

// Load builds config with precedence: defaults → agentgate.yaml → env vars → Overrides.
func Load(opts Options) (*Config, error) {
	cfg := Default()
	cfg.RootDir = opts.RootDir
	cfg.StateDir = opts.StateDir

	_ = loadDotEnvFiles(
		filepath.Join(opts.RootDir, ".env"),
		filepath.Join(opts.RootDir, ".env.local"),
	)

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = "agentgate.yaml"
	}
	if !filepath.IsAbs(configPath) && opts.RootDir != "" {
		configPath = filepath.Join(opts.RootDir, configPath)
	}
	data, err := os.ReadFile(configPath)
	if err == nil {
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("CONFIG_INVALID: malformed YAML in %s: %w", configPath, err)
		}
	}

	applyEnvOverlay(&cfg)

	if opts.Overrides != nil {
		applyOverrides(&cfg, opts.Overrides)
	}

	if !opts.SkipValidate {
		if err := Validate(&cfg, opts.NonInteractive); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// applyEnvOverlay layers environment variables over the YAML-loaded
// config, mirroring the teacher's env-overlay step in internal/config/load.go.
func applyEnvOverlay(cfg *Config) {
	if v := os.Getenv("HUGGING_FACE_TOKEN"); v != "" {
		cfg.Providers.HuggingFaceToken = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Providers.GoogleAPIKey = v
	}
	if v := os.Getenv("OPENAI_COMPAT_API_KEY"); v != "" {
		cfg.Providers.OpenAICompatKey = v
	}
	if v := os.Getenv("WAVESPEED_API_KEY"); v != "" {
		cfg.Providers.Wavespeed = v
	}
	if v := os.Getenv("REPLICATE_API_KEY"); v != "" {
		cfg.Providers.Replicate = v
	}
	if v := os.Getenv("NOVITA_API_KEY"); v != "" {
		cfg.Providers.Novita = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		cfg.Providers.ElevenLabs = v
	}
	if v := os.Getenv("X402_FACILITATOR_URL"); v != "" {
		cfg.Payment.FacilitatorURL = v
	}
	if v := os.Getenv("X402_MODE"); v != "" {
		cfg.Payment.Mode = v
	}
	if v := os.Getenv("X402_PAY_TO"); v != "" {
		cfg.Payment.PayTo = v
	}
	if v := os.Getenv("X402_FACILITATOR_SERVICE_SECRET"); v != "" {
		cfg.Payment.FacilitatorServiceSecret = v
	}
	if v := os.Getenv("AGENTGATE_AUTH_TOKEN"); v != "" {
		cfg.Security.Auth.TokenEnv = "AGENTGATE_AUTH_TOKEN"
	}
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.ServerListen != nil {
		cfg.Server.Listen = *o.ServerListen
	}
	if o.PaymentMode != nil {
		cfg.Payment.Mode = *o.PaymentMode
	}
	if o.FacilitatorURL != nil {
		cfg.Payment.FacilitatorURL = *o.FacilitatorURL
	}
	if o.PaymentPayTo != nil {
		cfg.Payment.PayTo = *o.PaymentPayTo
	}
	if o.HuggingFaceKey != nil {
		cfg.Providers.HuggingFaceToken = *o.HuggingFaceKey
	}
}
