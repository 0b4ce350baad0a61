package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/isdelr/replydesk/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsProvider supplies the runtime snapshot for the status endpoint.
type StatsProvider interface {
	Snapshot() monitoring.Stats
}

// HealthHandler serves liveness, readiness and status probes.
type HealthHandler struct {
	store     Pinger
	stats     StatsProvider
	replyMode string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger, stats StatsProvider, replyMode string) *HealthHandler {
	return &HealthHandler{store: store, stats: stats, replyMode: replyMode}
}

// Healthz always answers while the process is serving.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz checks that the store answers.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Readiness check failed")
		WriteError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// StatusResponse is the body of the status endpoint.
type StatusResponse struct {
	Status    string           `json:"status"`
	ReplyMode string           `json:"reply_mode"`
	Runtime   monitoring.Stats `json:"runtime"`
}

// Status reports runtime stats and the active reply mode.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:    "ok",
		ReplyMode: h.replyMode,
		Runtime:   h.stats.Snapshot(),
	})
}
