package config

import "github.com/compose-market/agentgate/internal/payment"

// Default returns a config with the gateway's baseline values.
func Default() Config {
	return Config{
		Version: 1,
		Registry: Registry{
			RefreshTTLMinutes: 360, // matches registry.DefaultTTL (6h)
		},
		Payment: Payment{
			Mode:    "off",
			Network: "eip155:8453",
			Scheme:  payment.SchemeUpto,
			Asset:   "usdc",
		},
		MCP: MCP{
			MaxSessions:    100,
			IdleTimeoutSec: 300,
			PoolTTLSec:     1800,
		},
		Server: Server{
			Listen: "127.0.0.1:8402",
		},
		Secrets: Secrets{
			Provider: "auto",
			Keychain: SecretsKeychain{Service: "agentgate", Account: "default"},
			File:     SecretsFile{Path: ".agentgate/secret.env", Mode: "0600"},
		},
		Security: Security{
			Auth: SecurityAuth{
				Mode:     "auto",
				TokenEnv: "AGENTGATE_AUTH_TOKEN",
			},
			AllowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
		},
	}
}
