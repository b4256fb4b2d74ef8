package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	VerifyConnectivity(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	pipelines PipelineSource
	database  Pinger
	started   time.Time
}

// NewHealthHandler creates a new health handler. database may be nil.
func NewHealthHandler(pipelines PipelineSource, database Pinger) *HealthHandler {
	return &HealthHandler{
		pipelines: pipelines,
		database:  database,
		started:   time.Now(),
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "aboxlink",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
			"go_version": GoVersion,
		},
	})
}

// ReadinessCheck handles GET /ready. The service is ready once the
// vocabulary is indexed and, when configured, the database answers.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if p := h.pipelines.Pipeline(); p != nil {
		stats := p.Index().Stats()
		checks["vocabulary"] = gin.H{
			"status":  "healthy",
			"classes": stats.Classes,
		}
	} else {
		checks["vocabulary"] = gin.H{
			"status": "unhealthy",
			"error":  "pipeline not initialized",
		}
		ready = false
	}

	if h.database != nil {
		start := time.Now()
		err := h.database.VerifyConnectivity(ctx)
		status := gin.H{
			"status":      "healthy",
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			status["status"] = "unhealthy"
			status["error"] = err.Error()
			ready = false
		}
		checks["database"] = status
	}

	response := gin.H{
		"status":    "ready",
		"service":   "aboxlink",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"checks":    checks,
	}
	if !ready {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
