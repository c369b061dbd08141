package gatewayhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compose-market/agentgate/internal/mcpruntime"
	"github.com/compose-market/agentgate/internal/payment"
)

// registerMCPProxyRoutes wires the MCP proxy surface of spec.md §4.6:
// GET /api/mcp/plugins|tools|status, GET /api/mcp/:pluginId/tools[/:toolName],
// POST /api/mcp/:pluginId/execute, GET /api/mcp/servers,
// POST /api/mcp/servers/:slug/call. execute/call forward the inbound
// x-payment header to the MCP server verbatim and pass its response
// headers — especially a 402 challenge — straight back to the client.
func registerMCPProxyRoutes(r *gin.Engine, deps Deps) {
	pool := deps.MCPPool

	r.GET("/api/mcp/plugins", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"plugins": deps.KnownMCPServers})
	})

	r.GET("/api/mcp/tools", func(c *gin.Context) {
		if pool == nil {
			writeError(c, http.StatusServiceUnavailable, "mcp runtime not configured")
			return
		}
		all := map[string][]mcpruntime.Tool{}
		for _, id := range deps.KnownMCPServers {
			tools, err := pool.GetServerTools(c.Request.Context(), id)
			if err != nil {
				continue
			}
			all[id] = tools
		}
		c.JSON(http.StatusOK, gin.H{"tools": all})
	})

	r.GET("/api/mcp/status", func(c *gin.Context) {
		status := make(map[string]string, len(deps.KnownMCPServers))
		for _, id := range deps.KnownMCPServers {
			if pool == nil {
				status[id] = "unavailable"
				continue
			}
			if _, err := pool.GetServerTools(c.Request.Context(), id); err != nil {
				status[id] = "error"
			} else {
				status[id] = "ready"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	})

	r.GET("/api/mcp/:pluginId/tools", func(c *gin.Context) {
		listServerTools(c, pool, c.Param("pluginId"))
	})

	r.GET("/api/mcp/:pluginId/tools/:toolName", func(c *gin.Context) {
		if pool == nil {
			writeError(c, http.StatusServiceUnavailable, "mcp runtime not configured")
			return
		}
		tools, err := pool.GetServerTools(c.Request.Context(), c.Param("pluginId"))
		if err != nil {
			writeError(c, http.StatusBadGateway, err.Error())
			return
		}
		name := c.Param("toolName")
		for _, t := range tools {
			if t.Name == name {
				c.JSON(http.StatusOK, t)
				return
			}
		}
		writeError(c, http.StatusNotFound, "tool not found")
	})

	r.POST("/api/mcp/:pluginId/execute", func(c *gin.Context) {
		executeMCPTool(c, pool, c.Param("pluginId"))
	})

	r.GET("/api/mcp/servers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"servers": deps.KnownMCPServers})
	})

	r.POST("/api/mcp/servers/:slug/call", func(c *gin.Context) {
		executeMCPTool(c, pool, c.Param("slug"))
	})
}

func listServerTools(c *gin.Context, pool mcpRuntimePool, serverID string) {
	if pool == nil {
		writeError(c, http.StatusServiceUnavailable, "mcp runtime not configured")
		return
	}
	tools, err := pool.GetServerTools(c.Request.Context(), serverID)
	if err != nil {
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

func executeMCPTool(c *gin.Context, pool mcpRuntimePool, serverID string) {
	if pool == nil {
		writeError(c, http.StatusServiceUnavailable, "mcp runtime not configured")
		return
	}
	var body struct {
		ToolName string         `json:"toolName"`
		Args     map[string]any `json:"args"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if payHeader := c.GetHeader(payment.HeaderPayment); payHeader != "" {
		ctx = mcpruntime.WithPaymentHeader(ctx, payHeader)
	}

	result, err := pool.ExecuteServerTool(ctx, serverID, body.ToolName, body.Args)
	if err != nil {
		status := forwardMCPHeaders(c, err)
		writeError(c, status, err.Error())
		return
	}
	forwardHeaderSet(c, result.ResponseHeaders)
	c.JSON(http.StatusOK, result)
}

// forwardMCPHeaders passes a failed call's upstream response headers
// and status code through verbatim — this is how a 402 challenge
// surfaces, status code included, even when ExecuteServerTool returns
// an error (e.g. the MCP server itself gates the tool call on
// payment). Falls back to 502 when the failure carries no upstream
// status (transport-level errors, not an HTTP response).
func forwardMCPHeaders(c *gin.Context, err error) int {
	tcErr, ok := err.(*mcpruntime.ToolCallError)
	if !ok {
		return http.StatusBadGateway
	}
	forwardHeaderSet(c, tcErr.Headers)
	if tcErr.StatusCode != 0 {
		return tcErr.StatusCode
	}
	return http.StatusBadGateway
}

func forwardHeaderSet(c *gin.Context, headers map[string][]string) {
	for key, values := range headers {
		for _, v := range values {
			c.Header(key, v)
		}
	}
}
