package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestPrecedence_FlagsOverrideFile verifies a CLI-flag override wins over
// the value from the YAML file.
func TestPrecedence_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "agentgate.yaml")
	yamlContent := "version: 1\nserver:\n  listen: \"0.0.0.0:9999\"\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatal(err)
	}

	listenOverride := "127.0.0.1:8888"
	overrides := &Overrides{ServerListen: &listenOverride}
	cfg, err := Load(Options{
		ConfigPath:   configPath,
		RootDir:      dir,
		SkipValidate: true,
		Overrides:    overrides,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != "127.0.0.1:8888" {
		t.Errorf("expected Server.Listen from overrides 127.0.0.1:8888, got %q", cfg.Server.Listen)
	}
}

// TestPrecedence_EnvOverridesFile verifies env overrides file when no CLI overrides.
func TestPrecedence_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "agentgate.yaml")
	yamlContent := "version: 1\npayment:\n  pay_to: \"from-file\"\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("X402_PAY_TO", "from-env")

	cfg, err := Load(Options{ConfigPath: configPath, RootDir: dir, SkipValidate: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Payment.PayTo != "from-env" {
		t.Errorf("expected pay_to from env 'from-env', got %q", cfg.Payment.PayTo)
	}
}

// TestSnapshot_NeverStoresPlaintextSecrets verifies snapshot redacts secrets.
func TestSnapshot_NeverStoresPlaintextSecrets(t *testing.T) {
	cfg := Default()
	cfg.Providers.HuggingFaceToken = "hf_secretvalue"
	cfg.Providers.ElevenLabs = "sk-elevenlabs-secret"

	snap := SnapshotConfig(&cfg)
	if snap.Providers.HuggingFaceToken != "<from env HUGGING_FACE_TOKEN>" {
		t.Errorf("HuggingFaceToken should be redacted, got %q", snap.Providers.HuggingFaceToken)
	}
	if snap.Providers.ElevenLabs != "<from env ELEVENLABS_API_KEY>" {
		t.Errorf("ElevenLabs should be redacted, got %q", snap.Providers.ElevenLabs)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hf_secretvalue") || strings.Contains(string(data), "sk-elevenlabs") {
		t.Errorf("snapshot must not contain plaintext secrets: %s", string(data))
	}
}
