package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/compose-market/agentgate/internal/config"
	"github.com/compose-market/agentgate/internal/connector"
	"github.com/compose-market/agentgate/internal/gatewayhttp"
	"github.com/compose-market/agentgate/internal/gwstate"
	"github.com/compose-market/agentgate/internal/mcpruntime"
	"github.com/compose-market/agentgate/internal/payment"
	"github.com/compose-market/agentgate/internal/registry"
	"github.com/compose-market/agentgate/internal/registry/providers/elevenlabs"
	"github.com/compose-market/agentgate/internal/registry/sources"
	"github.com/compose-market/agentgate/internal/router"
	"github.com/compose-market/agentgate/internal/router/handlers"
	"github.com/compose-market/agentgate/internal/router/providers/openaicompat"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP server",
	RunE:  runServe,
}

// runServe is the composition root: it builds every subsystem — model
// registry cache, payment gate, inference router, MCP runtime pool,
// connector registry — and wires them into gatewayhttp, mirroring the
// teacher's up.go bring-up sequence (load config, build dependent
// services bottom-up, then Run the server).
func runServe(_ *cobra.Command, _ []string) error {
	rootDir, err := filepath.Abs(globalFlags.Dir)
	if err != nil {
		exitWith(ExitRootInaccessible, "ERROR: "+err.Error())
	}
	stateDir := globalFlags.StateDir
	if stateDir == "" {
		stateDir = filepath.Join(rootDir, ".agentgate")
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		exitWith(ExitRootInaccessible, "ERROR: creating state dir: "+err.Error())
	}

	cfg, err := config.Load(config.Options{
		ConfigPath:     globalFlags.ConfigPath,
		RootDir:        rootDir,
		StateDir:       stateDir,
		NonInteractive: globalFlags.NonInteractive,
	})
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	registryCache := buildRegistryCache(cfg)
	gate := buildPaymentGate(cfg, stateDir)
	dispatcher := buildDispatcher(cfg)
	pool := mcpruntime.NewPool(buildSpawnFunc(cfg))
	connectors := connector.NewRegistry(connector.BuildCatalog(), pool)

	deps := gatewayhttp.Deps{
		RegistryCache:   registryCache,
		Dispatcher:      dispatcher,
		Gate:            gate,
		Connectors:      connectors,
		MCPPool:         pool,
		AllowedOrigins:  cfg.Security.AllowedOrigins,
		PaymentNetwork:  cfg.Payment.Network,
		PaymentAsset:    cfg.Payment.Asset,
		PaymentPayTo:    cfg.Payment.PayTo,
		KnownMCPServers: cfg.MCP.KnownServers,
	}

	server := gatewayhttp.NewServer(cfg.Server.Listen, deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("agentgate listening on", cfg.Server.Listen)
	if err := server.Run(ctx); err != nil {
		exitWith(ExitBindFailure, "ERROR: "+err.Error())
	}
	return nil
}

func buildRegistryCache(cfg *config.Config) *registry.Cache {
	var srcs []registry.Source
	if cfg.Providers.HuggingFaceToken != "" {
		srcs = append(srcs, sources.NewHuggingFace(cfg.Providers.HuggingFaceToken))
	}
	if cfg.Providers.GoogleAPIKey != "" {
		srcs = append(srcs, sources.NewGoogle(cfg.Providers.GoogleAPIKey))
	}
	if cfg.Providers.OpenAICompatKey != "" {
		srcs = append(srcs, sources.NewOpenAI(cfg.Providers.OpenAICompatKey))
		srcs = append(srcs, sources.NewOpenRouter(cfg.Providers.OpenAICompatKey))
	}

	var overlay *registry.PriceOverlay
	if cfg.Registry.OverlayPath != "" {
		if o, err := registry.LoadPriceOverlayFile(cfg.Registry.OverlayPath); err == nil {
			overlay = o
		}
	}

	ttl := time.Duration(cfg.Registry.RefreshTTLMinutes) * time.Minute
	return registry.NewCache(srcs, overlay, ttl, gwstate.NewRegistryRefreshState())
}

func buildPaymentGate(cfg *config.Config, stateDir string) *payment.Gate {
	client := payment.NewFacilitatorClient(cfg.Payment.FacilitatorURL, "", nil)
	if secret := cfg.Payment.FacilitatorServiceSecret; secret != "" {
		client = client.WithServiceTokenSigner(payment.NewServiceTokenSigner([]byte(secret), "agentgate"))
	}
	log := payment.NewSettlementLog(filepath.Join(stateDir, "settlements.jsonl"), func(err error) {
		fmt.Fprintln(os.Stderr, "settlement log warning:", err)
	})
	events := func(level, event string, data map[string]interface{}) {
		if globalFlags.Quiet {
			return
		}
		fmt.Fprintf(os.Stderr, "[%s] %s %v\n", level, event, data)
	}
	return payment.NewGate(client, cfg.Payment.Mode, log, events)
}

// chatBaseURL is the OpenAI-compatible chat-completions endpoint text
// generation is routed through. OpenRouter is used rather than a
// per-request provider lookup because ChatStreamer's signature (fixed
// at dispatcher build time) has no slot for the routed registry.Source —
// OpenRouter's own model aliasing covers the rest of the OpenAI-shaped
// catalog without the dispatcher needing to know which upstream a given
// model id belongs to.
const chatBaseURL = "https://openrouter.ai/api/v1"

func buildDispatcher(cfg *config.Config) *router.Dispatcher {
	ttsClient := elevenlabs.NewClient(cfg.Providers.ElevenLabs, "")
	chatClient := &openaicompat.Client{}
	streamer := func(ctx context.Context, body map[string]interface{}, onChunk func(delta string)) (router.TokenUsage, error) {
		return chatClient.StreamChat(ctx, chatBaseURL, cfg.Providers.OpenAICompatKey, body, onChunk)
	}
	return router.NewDispatcher(map[registry.Task]router.Handler{
		registry.TaskTextGeneration:       handlers.TextHandler(streamer, nil),
		registry.TaskTextToSpeech:         handlers.TTSHandler(ttsClient, ""),
		registry.TaskAutomaticSpeechRecog: handlers.ASRHandler(ttsClient),
	})
}

// buildSpawnFunc returns the MCP pool's spawn function: fetch spawn
// config for serverID, then build the right Transport.
func buildSpawnFunc(cfg *config.Config) func(ctx context.Context, serverID string) (mcpruntime.Transport, error) {
	client := mcpruntime.NewSpawnConfigClient(cfg.MCP.SpawnConfigURL)
	var nextPort int64 = 20000
	allocPort := func() int {
		for {
			port := int(atomic.AddInt64(&nextPort, 1))
			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
			if err == nil {
				ln.Close()
				return port
			}
		}
	}
	return func(ctx context.Context, serverID string) (mcpruntime.Transport, error) {
		spawnCfg, err := client.Fetch(ctx, serverID)
		if err != nil {
			return nil, err
		}
		return mcpruntime.BuildTransport(spawnCfg, allocPort)
	}
}
