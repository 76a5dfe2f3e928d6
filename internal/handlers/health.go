package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports the reachability of the database and session store.
type HealthHandler struct {
	dependencies map[string]Pinger
	logger       *slog.Logger
}

func NewHealthHandler(dependencies map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{dependencies: dependencies, logger: logger}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Health pings every dependency
// @Summary Health check
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.dependencies))
	healthy := true

	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				slog.String("dependency", name),
				slog.Any("error", err),
			)
			deps[name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	pkghttp.WriteJSON(w, httpStatus, HealthResponse{
		Status:       status,
		Dependencies: deps,
	})
}
