package api

import (
	"net/http"
	"time"

	"github.com/openhealth/openhealth/internal/api/respond"
)

// HealthHandler handles the liveness endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// serviceIsHealthy is injected by run.go; before binding, the service
// reports unhealthy.
var serviceIsHealthy = func() bool { return false }

// BindServiceHealth lets the bootstrap inject the aggregated health flag.
func BindServiceHealth(f func() bool) { serviceIsHealthy = f }

// CheckHealth handles GET /api/health.
// Always returns 200; the body reports healthy/unhealthy. A non-200 means
// the handler itself failed.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if serviceIsHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
