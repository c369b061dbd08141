package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_UsesDotEnvWhenEnvIsMissing(t *testing.T) {
	clearProviderEnv(t)
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, ".env"), "HUGGING_FACE_TOKEN=from_dotenv\n")

	cfg, err := Load(Options{RootDir: tmp, SkipValidate: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.HuggingFaceToken != "from_dotenv" {
		t.Fatalf("unexpected token: %q", cfg.Providers.HuggingFaceToken)
	}
}

func TestLoad_EnvOverridesDotEnv(t *testing.T) {
	clearProviderEnv(t)
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, ".env"), "HUGGING_FACE_TOKEN=from_dotenv\n")
	t.Setenv("HUGGING_FACE_TOKEN", "from_env")

	cfg, err := Load(Options{RootDir: tmp, SkipValidate: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.HuggingFaceToken != "from_env" {
		t.Fatalf("unexpected token: %q", cfg.Providers.HuggingFaceToken)
	}
}

func TestLoad_DotEnvLocalOverridesDotEnv(t *testing.T) {
	clearProviderEnv(t)
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, ".env"), "HUGGING_FACE_TOKEN=from_env_file\n")
	writeFile(t, filepath.Join(tmp, ".env.local"), "HUGGING_FACE_TOKEN=from_env_local\n")

	cfg, err := Load(Options{RootDir: tmp, SkipValidate: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.HuggingFaceToken != "from_env_local" {
		t.Fatalf("unexpected token: %q", cfg.Providers.HuggingFaceToken)
	}
}

func TestLoad_CLIOverrideWinsOverEverything(t *testing.T) {
	clearProviderEnv(t)
	tmp := t.TempDir()
	t.Setenv("HUGGING_FACE_TOKEN", "from_env")
	override := "from_cli"

	cfg, err := Load(Options{RootDir: tmp, SkipValidate: true, Overrides: &Overrides{HuggingFaceKey: &override}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.HuggingFaceToken != "from_cli" {
		t.Fatalf("unexpected token: %q", cfg.Providers.HuggingFaceToken)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HUGGING_FACE_TOKEN", "")
}
