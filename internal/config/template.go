package config

// DefaultYAML is the template written by "agentgate config init".
// Placeholders like ${HUGGING_FACE_TOKEN} are resolved from env at load time.
const DefaultYAML = `version: 1

providers:
  hugging_face_token: ${HUGGING_FACE_TOKEN}
  google_api_key: ${GOOGLE_API_KEY}
  openai_compat_key: ${OPENAI_COMPAT_API_KEY}
  wavespeed_api_key: ${WAVESPEED_API_KEY}
  replicate_api_key: ${REPLICATE_API_KEY}
  novita_api_key: ${NOVITA_API_KEY}
  elevenlabs_api_key: ${ELEVENLABS_API_KEY}

registry:
  refresh_ttl_minutes: 360
  overlay_path: ""

payment:
  mode: off
  facilitator_url: ""
  network: "eip155:8453"
  scheme: "upto"
  asset: "usdc"
  pay_to: ""

mcp:
  spawn_config_url: ""
  known_servers: []
  max_sessions: 100
  idle_timeout_sec: 300
  pool_ttl_sec: 1800

server:
  listen: "127.0.0.1:8402"

secrets:
  provider: auto
  keychain:
    service: "agentgate"
    account: "default"
  file:
    path: ".agentgate/secret.env"
    mode: "0600"

security:
  auth:
    mode: auto
    token_file: ""
    token_env: "AGENTGATE_AUTH_TOKEN"
  allowed_origins:
    - "http://localhost"
    - "http://127.0.0.1"
`
