package handlers

import (
	"net/http"
	"time"

	"wellness-backend/internal/application/services"
	"wellness-backend/pkg/api"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version,omitempty"`
	Breaker     string    `json:"aiBreaker"`
	ActiveUsers int       `json:"activeUsers"`
	Timestamp   time.Time `json:"timestamp"`
}

// HealthHandler reports liveness. An open AI breaker degrades the status but
// the service still answers from the rule table.
type HealthHandler struct {
	service *services.WellnessService
	version string
}

// NewHealthHandler creates the handler.
func NewHealthHandler(service *services.WellnessService, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	breaker := h.service.BreakerState()
	status := "healthy"
	if breaker == "open" {
		status = "degraded"
	}
	api.Success(w, http.StatusOK, HealthResponse{
		Status:      status,
		Version:     h.version,
		Breaker:     breaker,
		ActiveUsers: h.service.ActiveUsers(),
		Timestamp:   time.Now().UTC(),
	})
}
