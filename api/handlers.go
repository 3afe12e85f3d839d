package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"memory-match-server/config"
	"memory-match-server/game"
	"memory-match-server/sessions"
)

// StatsProvider reports session counts for the health endpoint.
type StatsProvider interface {
	Stats() sessions.Stats
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config   *config.Config
	Levels   game.DifficultyProvider
	Sessions StatsProvider
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, difficulties game.DifficultyProvider, stats StatsProvider) *Handler {
	return &Handler{
		Config:   cfg,
		Levels:   difficulties,
		Sessions: stats,
	}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// DifficultiesResponse is the JSON structure for /api/difficulties.
type DifficultiesResponse struct {
	Default      string            `json:"default"`
	Difficulties []game.Difficulty `json:"difficulties"`
}

// Difficulties lists the playable difficulty table in registration order.
func (h *Handler) Difficulties(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, DifficultiesResponse{
		Default:      h.Config.DefaultDifficulty,
		Difficulties: h.Levels.All(),
	})
}

// HealthResponse is the JSON structure for /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	sessions.Stats
}

// Health reports liveness together with session counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.Sessions != nil {
		resp.Stats = h.Sessions.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "tag", "api", "err", err)
	}
}
