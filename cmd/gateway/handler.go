// In file: cmd/gateway/handler.go
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wordware-gateway/internal/stats"
	"wordware-gateway/internal/tools"
	"wordware-gateway/internal/wordware"
)

// GatewayHandler serves the REST surface: tool listing, invocation, and run
// statistics. It dispatches into the same registry the MCP transport uses.
type GatewayHandler struct {
	registry *tools.Registry
	client   *wordware.Client
	tracker  *stats.Tracker
	logger   *zap.Logger
}

func NewGatewayHandler(registry *tools.Registry, client *wordware.Client, tracker *stats.Tracker, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{
		registry: registry,
		client:   client,
		tracker:  tracker,
		logger:   logger,
	}
}

// RegisterRoutes attaches the REST routes to the engine.
func (h *GatewayHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", h.HandleHealth)
	v1 := engine.Group("/api/v1")
	{
		v1.GET("/tools", h.HandleListTools)
		v1.POST("/tools/:name/invoke", h.HandleInvoke)
		v1.GET("/tools/:name/stats", h.HandleStats)
	}
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tools": h.registry.ToolCount()})
}

func (h *GatewayHandler) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.registry.Definitions()})
}

// HandleInvoke runs one tool synchronously. The request body is the raw
// argument mapping; normalization happens inside the invocation path.
func (h *GatewayHandler) HandleInvoke(c *gin.Context) {
	startTime := time.Now()
	name := c.Param("name")

	var args map[string]any
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	if _, ok := h.registry.Get(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tool '" + name + "' not found"})
		return
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid arguments: " + err.Error()})
		return
	}

	h.logger.Info("REST invocation", zap.String("tool", name))
	text, err := h.registry.Execute(c.Request.Context(), name, string(argsJSON))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tool":       name,
		"result":     text,
		"latency_ms": time.Since(startTime).Milliseconds(),
	})
}

// HandleStats reports a tool's aggregate run statistics.
func (h *GatewayHandler) HandleStats(c *gin.Context) {
	if h.tracker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run statistics are not enabled"})
		return
	}
	name := c.Param("name")
	tool, ok := h.registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tool '" + name + "' not found"})
		return
	}

	// Stats are keyed by tool ID, so map the registered name back to it.
	toolID := ""
	if ft, ok := tool.(*tools.FlowTool); ok {
		toolID = ft.ToolID()
	}
	if toolID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no statistics available for tool '" + name + "'"})
		return
	}

	snapshot, err := h.tracker.Get(c.Request.Context(), toolID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
