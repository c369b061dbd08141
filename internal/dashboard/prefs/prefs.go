// Package prefs holds the operator dashboard's own display preferences,
// kept separate from internal/config's gateway configuration. Grounded
// on internal/dirstral/config/config.go's TOML-file-plus-dotenv-secret
// split: display preferences live in a small TOML file under the user's
// config dir, while the one dashboard secret (an optional bearer token
// for a gateway behind auth) lives in .env.local via godotenv — the home
// SPEC_FULL.md reserved for godotenv once the hand-rolled loader in
// internal/config/dotenv.go took the ambient-config role.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const dashboardAuthEnvVar = "AGENTGATE_DASHBOARD_TOKEN"

// Prefs are the dashboard's own settings, distinct from the gateway's
// own agentgate.yaml.
type Prefs struct {
	GatewayAddr    string `toml:"gateway_addr"`
	RefreshSeconds int    `toml:"refresh_seconds"`
}

func Default() Prefs {
	return Prefs{
		GatewayAddr:    "http://127.0.0.1:8402",
		RefreshSeconds: 3,
	}
}

// Path returns ~/.config/agentgate/dashboard.toml.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "agentgate", "dashboard.toml"), nil
}

// Load reads dashboard.toml, falling back to defaults if absent.
func Load() (Prefs, error) {
	p := Default()
	path, err := Path()
	if err != nil {
		return p, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return p, nil
		}
		return p, statErr
	}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, fmt.Errorf("decoding %s: %w", path, err)
	}
	return p, nil
}

// Save writes prefs to dashboard.toml.
func Save(p Prefs) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encoding prefs: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// DashboardToken reads the optional bearer token for a gateway behind
// auth from .env.local, falling back to the process environment.
func DashboardToken() string {
	if v := os.Getenv(dashboardAuthEnvVar); v != "" {
		return v
	}
	vals, err := godotenv.Read(".env.local")
	if err != nil {
		return ""
	}
	return vals[dashboardAuthEnvVar]
}

// SaveDashboardToken writes the token into .env.local.
func SaveDashboardToken(token string) error {
	const path = ".env.local"
	env := map[string]string{}
	if existing, err := godotenv.Read(path); err == nil {
		env = existing
	}
	env[dashboardAuthEnvVar] = token
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return os.Setenv(dashboardAuthEnvVar, token)
}
