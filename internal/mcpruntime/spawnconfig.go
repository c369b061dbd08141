package mcpruntime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SpawnConfigClient fetches spawn configuration for a server id from the
// Connector service's registry endpoint, per spec.md §4.4.
type SpawnConfigClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSpawnConfigClient(baseURL string) *SpawnConfigClient {
	return &SpawnConfigClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch calls GET /registry/servers/{id}/spawn.
func (c *SpawnConfigClient) Fetch(ctx context.Context, serverID string) (SpawnConfig, error) {
	url := fmt.Sprintf("%s/registry/servers/%s/spawn", c.baseURL, serverID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SpawnConfig{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SpawnConfig{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SpawnConfig{}, fmt.Errorf("mcpruntime: spawn config fetch for %s returned status %d", serverID, resp.StatusCode)
	}

	var cfg SpawnConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return SpawnConfig{}, fmt.Errorf("mcpruntime: decoding spawn config for %s: %w", serverID, err)
	}
	cfg.ServerID = serverID
	return cfg, nil
}

// BuildTransport constructs the right Transport implementation for a
// SpawnConfig, given an available Docker port allocator for the docker
// case.
func BuildTransport(cfg SpawnConfig, allocPort func() int) (Transport, error) {
	switch cfg.Transport {
	case "stdio":
		return NewStdioTransport(cfg, true), nil
	case "http-sse":
		return NewHTTPSSETransport(cfg.URL, ""), nil
	case "docker":
		port := cfg.Port
		if port == 0 && allocPort != nil {
			port = allocPort()
		}
		return NewDockerTransport(cfg.Image, port), nil
	default:
		return nil, fmt.Errorf("mcpruntime: unsupported transport %q for server %s", cfg.Transport, cfg.ServerID)
	}
}
