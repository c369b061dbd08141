package gatewayhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compose-market/agentgate/internal/registry"
)

// registerRegistryRoutes wires the model catalog routes from spec.md §4.6.
func registerRegistryRoutes(r *gin.Engine, cache *registry.Cache) {
	fetch := func(c *gin.Context) (*registry.ModelRegistry, bool) {
		if cache == nil {
			writeError(c, http.StatusServiceUnavailable, "model registry not configured")
			return nil, false
		}
		reg, err := cache.Get(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusBadGateway, err.Error())
			return nil, false
		}
		return reg, true
	}

	r.GET("/api/models", func(c *gin.Context) {
		reg, ok := fetch(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"models": reg.Models})
	})

	r.GET("/api/registry/models", func(c *gin.Context) {
		reg, ok := fetch(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, reg)
	})

	r.GET("/api/registry/models/available", func(c *gin.Context) {
		reg, ok := fetch(c)
		if !ok {
			return
		}
		available := make([]registry.ModelInfo, 0, len(reg.Models))
		for _, m := range reg.Models {
			if m.Available {
				available = append(available, m)
			}
		}
		c.JSON(http.StatusOK, gin.H{"models": available})
	})

	r.GET("/api/registry/models/:source", func(c *gin.Context) {
		reg, ok := fetch(c)
		if !ok {
			return
		}
		source := c.Param("source")
		matched := make([]registry.ModelInfo, 0)
		for _, m := range reg.Models {
			if m.Source == source {
				matched = append(matched, m)
			}
		}
		c.JSON(http.StatusOK, gin.H{"models": matched})
	})

	r.GET("/api/registry/model/:id", func(c *gin.Context) {
		reg, ok := fetch(c)
		if !ok {
			return
		}
		model, found := reg.GetModelInfo(c.Param("id"))
		if !found {
			writeError(c, http.StatusNotFound, "model not found")
			return
		}
		c.JSON(http.StatusOK, model)
	})

	r.POST("/api/registry/refresh", func(c *gin.Context) {
		if cache == nil {
			writeError(c, http.StatusServiceUnavailable, "model registry not configured")
			return
		}
		if err := cache.Refresh(c.Request.Context()); err != nil {
			writeError(c, http.StatusBadGateway, err.Error())
			return
		}
		reg, err := cache.Get(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusBadGateway, err.Error())
			return
		}
		c.JSON(http.StatusOK, reg)
	})
}
