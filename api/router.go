package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the HTTP surface. The WebSocket endpoint is mounted outside
// the middleware chain so the connection can be hijacked.
func NewRouter(h *Handler, serveWS http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", serveWS)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(Recovery)
	api.Use(Logging)
	api.HandleFunc("/difficulties", h.Difficulties).Methods(http.MethodGet, http.MethodOptions)

	r.Handle("/healthz", Recovery(http.HandlerFunc(h.Health))).Methods(http.MethodGet)

	return r
}
