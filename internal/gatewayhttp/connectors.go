package gatewayhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compose-market/agentgate/internal/connector"
)

// registerConnectorRoutes wires GET /connectors, GET /connectors/:id,
// GET /connectors/:id/tools, POST /connectors/:id/call per spec.md §4.6.
func registerConnectorRoutes(r *gin.Engine, connectors *connector.Registry) {
	group := r.Group("/connectors")

	group.GET("", func(c *gin.Context) {
		if connectors == nil {
			c.JSON(http.StatusOK, gin.H{"connectors": []connector.ConnectorSummary{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"connectors": connectors.ListConnectors()})
	})

	group.GET("/:id", func(c *gin.Context) {
		if connectors == nil {
			writeError(c, http.StatusNotFound, "connector not found")
			return
		}
		id := c.Param("id")
		for _, s := range connectors.ListConnectors() {
			if s.Descriptor.ID == id {
				c.JSON(http.StatusOK, s)
				return
			}
		}
		writeError(c, http.StatusNotFound, "connector not found")
	})

	group.GET("/:id/tools", func(c *gin.Context) {
		if connectors == nil {
			writeError(c, http.StatusServiceUnavailable, "connector layer not configured")
			return
		}
		tools, err := connectors.ListTools(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeConnectorError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tools": tools})
	})

	group.POST("/:id/call", func(c *gin.Context) {
		if connectors == nil {
			writeError(c, http.StatusServiceUnavailable, "connector layer not configured")
			return
		}
		var body struct {
			ToolName string                 `json:"toolName"`
			Args     map[string]interface{} `json:"args"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		result, err := connectors.CallTool(c.Request.Context(), c.Param("id"), body.ToolName, body.Args)
		if err != nil {
			writeConnectorError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func writeConnectorError(c *gin.Context, err error) {
	if unavailable, ok := err.(*connector.ErrUnavailable); ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "connector_unavailable",
			"message":    unavailable.Error(),
			"missingEnv": unavailable.MissingEnv,
		})
		return
	}
	writeError(c, http.StatusBadRequest, err.Error())
}
