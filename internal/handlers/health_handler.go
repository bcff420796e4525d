package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check probes
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// PingContext calls f
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler reports the state of the database and optional dependencies
type HealthHandler struct {
	version string
	checks  map[string]Pinger
}

// NewHealthHandler creates a health handler; checks maps a dependency
// name to its probe
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Check pings every dependency
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = gin.H{"status": "unhealthy", "error": err.Error()}
			continue
		}
		deps[name] = gin.H{"status": "healthy"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
		"version":      h.version,
		"timestamp":    time.Now().Unix(),
	})
}
