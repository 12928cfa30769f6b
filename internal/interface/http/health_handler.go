package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-rental-marketplace/pkg/response"
)

// Check reports whether a dependency is reachable
type Check func(ctx context.Context) error

type HealthHandler struct {
	Checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{Checks: checks}
}

// Health GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}
	if status != http.StatusOK {
		response.Error[any](c, status, "degraded", deps)
		return
	}
	response.Success(c, status, deps, "ok", nil)
}
