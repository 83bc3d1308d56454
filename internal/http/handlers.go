package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardenfs/warden/internal/infrastructure/monitoring"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/service"
	"github.com/wardenfs/warden/internal/shared/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	gate     *sandbox.Gate
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, gate *sandbox.Gate, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		registry: registry,
		gate:     gate,
		metrics:  metrics,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Warden Filesystem Service",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	roots := h.gate.Roots()
	rootPaths := make([]string, len(roots))
	for i, r := range roots {
		rootPaths[i] = string(r)
	}

	resp := gin.H{
		"status":        "healthy",
		"registry":      h.registry.Stats(),
		"allowed_roots": rootPaths,
	}

	if h.metrics != nil {
		snap := h.metrics.GetSnapshot()
		resp["requests"] = snap.TotalRequests
		resp["errors"] = snap.TotalErrors
		resp["denials"] = snap.TotalDenials
		resp["uptime_seconds"] = h.metrics.UptimeSeconds()
	}

	c.JSON(http.StatusOK, resp)
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	services := h.registry.List(category)
	stats := h.registry.Stats()

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    stats,
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.metrics != nil {
		status := "success"
		if !result.Success {
			status = "failure"
		}
		h.metrics.RecordToolCall("fs", req.ToolID, status, time.Since(start))
	}

	c.JSON(http.StatusOK, result)
}
