package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SnapshotConfig returns a copy of config safe to persist: secrets are
// replaced with their source env var name, never the plaintext value.
func SnapshotConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	c.Providers.HuggingFaceToken = redactSecret(cfg.Providers.HuggingFaceToken, "HUGGING_FACE_TOKEN")
	c.Providers.GoogleAPIKey = redactSecret(cfg.Providers.GoogleAPIKey, "GOOGLE_API_KEY")
	c.Providers.OpenAICompatKey = redactSecret(cfg.Providers.OpenAICompatKey, "OPENAI_COMPAT_API_KEY")
	c.Providers.Wavespeed = redactSecret(cfg.Providers.Wavespeed, "WAVESPEED_API_KEY")
	c.Providers.Replicate = redactSecret(cfg.Providers.Replicate, "REPLICATE_API_KEY")
	c.Providers.Novita = redactSecret(cfg.Providers.Novita, "NOVITA_API_KEY")
	c.Providers.ElevenLabs = redactSecret(cfg.Providers.ElevenLabs, "ELEVENLABS_API_KEY")
	return &c
}

func redactSecret(value, envName string) string {
	if value == "" {
		return ""
	}
	return "<from env " + envName + ">"
}

// WriteSnapshot writes the redacted config snapshot to stateDir/agentgate.yaml.snapshot.
func WriteSnapshot(stateDir string, cfg *Config) error {
	snap := SnapshotConfig(cfg)
	if snap == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	p := filepath.Join(stateDir, "agentgate.yaml.snapshot")
	return os.WriteFile(p, data, 0600)
}
