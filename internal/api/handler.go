// Package api provides the local HTTP control surface for the relay session.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaurya-crypto/aanya-link/internal/config"
	"github.com/shaurya-crypto/aanya-link/internal/session"
	"github.com/shaurya-crypto/aanya-link/internal/speech"
	"github.com/shaurya-crypto/aanya-link/internal/store"
)

// Handler serves the local control API.
type Handler struct {
	ctrl    *session.Controller
	repo    store.Repository
	capture *speech.Capture // nil when voice is disabled
	cfg     *config.Config
}

// NewHandler creates a handler over the session controller.
func NewHandler(ctrl *session.Controller, repo store.Repository, capture *speech.Capture, cfg *config.Config) *Handler {
	return &Handler{
		ctrl:    ctrl,
		repo:    repo,
		capture: capture,
		cfg:     cfg,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
