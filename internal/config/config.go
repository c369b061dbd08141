package config

// Allowed enum values for config validation, mirroring the teacher's
// stringIn-checked enum constants in internal/config/config.go.
var (
	X402Modes         = []string{"off", "on", "required"}
	PaymentSchemes    = []string{"exact", "upto"}
	SecretsProviders  = []string{"auto", "keychain", "file", "env", "session"}
	SecurityAuthModes = []string{"auto", "none", "file"}
)

func stringIn(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// Config holds the full resolved gateway configuration.
// Precedence: CLI flags > env vars > agentgate.yaml > defaults.
type Config struct {
	RootDir  string `yaml:"-"` // set from Options at load
	StateDir string `yaml:"-"` // set from Options at load
	Version  int    `yaml:"version"`

	Providers Providers `yaml:"providers"`
	Registry  Registry  `yaml:"registry"`
	Payment   Payment   `yaml:"payment"`
	MCP       MCP       `yaml:"mcp"`
	Server    Server    `yaml:"server"`
	Secrets   Secrets   `yaml:"secrets"`
	Security  Security  `yaml:"security"`
}

// Providers holds API keys for the inference/TTS/ASR providers the
// router dispatches to (spec.md §4.3).
type Providers struct {
	HuggingFaceToken string `yaml:"hugging_face_token"`
	GoogleAPIKey     string `yaml:"google_api_key"`
	OpenAICompatKey  string `yaml:"openai_compat_key"`
	Wavespeed        string `yaml:"wavespeed_api_key"`
	Replicate        string `yaml:"replicate_api_key"`
	Novita           string `yaml:"novita_api_key"`
	ElevenLabs       string `yaml:"elevenlabs_api_key"`
}

// Registry holds model-catalog cache settings (spec.md §4.2).
type Registry struct {
	RefreshTTLMinutes int    `yaml:"refresh_ttl_minutes"`
	OverlayPath       string `yaml:"overlay_path"`
}

// Payment holds x402 facilitator and default pricing settings (spec.md §4.1).
type Payment struct {
	Mode                     string `yaml:"mode"` // off | on | required
	FacilitatorURL           string `yaml:"facilitator_url"`
	Network                  string `yaml:"network"`
	Scheme                   string `yaml:"scheme"` // exact | upto
	Asset                    string `yaml:"asset"`
	PayTo                    string `yaml:"pay_to"`
	FacilitatorServiceSecret string `yaml:"facilitator_service_secret"`
}

// MCP holds MCP runtime pool tuning and known-server ids (spec.md §4.4).
type MCP struct {
	SpawnConfigURL   string   `yaml:"spawn_config_url"`
	KnownServers     []string `yaml:"known_servers"`
	MaxSessions      int      `yaml:"max_sessions"`
	IdleTimeoutSec   int      `yaml:"idle_timeout_sec"`
	PoolTTLSec       int      `yaml:"pool_ttl_sec"`
}

// Server holds the HTTP listen address (spec.md §4.6); CORS origins live
// in Security.AllowedOrigins.
type Server struct {
	Listen string `yaml:"listen"`
	Auth   string `yaml:"-"` // set from CLI/state; not in YAML
}

// Secrets holds secret storage provider configuration, carried from the
// teacher's own secrets layer unchanged in shape.
type Secrets struct {
	Provider string          `yaml:"provider"` // auto | keychain | file | env | session
	Keychain SecretsKeychain `yaml:"keychain"`
	File     SecretsFile     `yaml:"file"`
}

// SecretsKeychain holds keychain provider settings.
type SecretsKeychain struct {
	Service string `yaml:"service"`
	Account string `yaml:"account"`
}

// SecretsFile holds file-based secret storage settings.
type SecretsFile struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"`
}

// Security holds auth and CORS settings.
type Security struct {
	Auth           SecurityAuth `yaml:"auth"`
	AllowedOrigins []string     `yaml:"allowed_origins"`
}

// SecurityAuth holds auth mode and token env name.
type SecurityAuth struct {
	Mode      string `yaml:"mode"` // auto | none | file
	TokenFile string `yaml:"token_file"`
	TokenEnv  string `yaml:"token_env"`
}
