// Package gatewayhttp is the thin HTTP composition layer tying the
// payment gate, model registry, inference router, MCP runtime, and
// connector layer to gin routes, per spec.md §4.6. Grounded on
// github.com/gin-gonic/gin (the dominant router across the corpus) and
// on the teacher's internal/mcp/server.go CORS/shutdown idioms.
package gatewayhttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/compose-market/agentgate/internal/connector"
	"github.com/compose-market/agentgate/internal/mcpruntime"
	"github.com/compose-market/agentgate/internal/payment"
	"github.com/compose-market/agentgate/internal/registry"
	"github.com/compose-market/agentgate/internal/router"
)

const serviceVersion = "0.1.0"

// Deps are the composed subsystems this HTTP surface fronts.
type Deps struct {
	RegistryCache  *registry.Cache
	Dispatcher     *router.Dispatcher
	Gate           *payment.Gate
	Connectors     *connector.Registry
	MCPPool        mcpRuntimePool
	AllowedOrigins []string

	// PaymentNetwork/PaymentAsset/PaymentPayTo populate the x402
	// Requirement/Challenge the gate builds when a request arrives
	// without a payment header (spec.md §4.1).
	PaymentNetwork string
	PaymentAsset   string
	PaymentPayTo   string

	// KnownMCPServers lists the server ids the gateway is configured to
	// proxy, for the /api/mcp/plugins|servers listing endpoints.
	KnownMCPServers []string
}

// mcpRuntimePool is the subset of mcpruntime.Pool the MCP proxy routes need.
type mcpRuntimePool interface {
	GetServerTools(ctx context.Context, serverID string) ([]mcpruntime.Tool, error)
	ExecuteServerTool(ctx context.Context, serverID, toolName string, args map[string]any) (*mcpruntime.ToolCallResult, error)
}

// NewRouter builds the gin engine with every route from spec.md §4.6.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(requestLoggingMiddleware(), gin.Recovery(), corsMiddleware(deps.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "agentgate",
			"version":   serviceVersion,
		})
	})

	registerConnectorRoutes(r, deps.Connectors)
	registerInferenceRoutes(r, deps)
	registerRegistryRoutes(r, deps.RegistryCache)
	registerMCPProxyRoutes(r, deps)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no route for " + c.Request.Method + " " + c.Request.URL.Path})
	})
	return r
}

// requestLoggingMiddleware logs timestamped method/path, per spec.md §4.6.
func requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		gin.DefaultWriter.Write([]byte(
			start.UTC().Format(time.RFC3339) + " " + c.Request.Method + " " + c.Request.URL.Path +
				" " + time.Since(start).String() + "\n"))
	}
}

// corsMiddleware mirrors the teacher's corsMiddleware (internal/mcp/server.go),
// generalized to gin's handler chain and to the gateway's broader header set.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin != "" && isOriginAllowed(origin, allowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Payment, MCP-Protocol-Version, MCP-Session-Id, x-session-active, x-session-budget-remaining")
			c.Header("Access-Control-Expose-Headers", "*")
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions && origin != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isOriginAllowed(origin string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, a := range allowlist {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// writeError implements spec.md §4.6's global error handler shape.
func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": http.StatusText(status), "message": message})
}
