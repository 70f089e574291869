package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shaurya-crypto/aanya-link/internal/pairing"
	"github.com/shaurya-crypto/aanya-link/internal/session"
)

// RegisterRoutes registers the session control routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Post("/token", h.SaveToken)
		r.Post("/link", h.Link)
		r.Post("/unlink", h.Unlink)
		r.Post("/command", h.Command)
		r.Get("/transcript", h.Transcript)
		r.Route("/voice", func(r chi.Router) {
			r.Get("/status", h.VoiceStatus)
			r.Post("/start", h.VoiceStart)
			r.Post("/stop", h.VoiceStop)
		})
	})
}

type statusResponse struct {
	Linked       bool   `json:"linked"`
	State        string `json:"state"`
	KeySaved     bool   `json:"keySaved"`
	TokenPresent bool   `json:"tokenPresent"`
	VoiceEnabled bool   `json:"voiceEnabled"`
}

// Status reports the session and store state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	cred, err := h.repo.GetCredential(r.Context())
	if err != nil {
		slog.Error("Failed to read credential", "error", err)
		Error(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	token, err := h.repo.GetToken(r.Context())
	if err != nil {
		slog.Error("Failed to read token", "error", err)
		Error(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	JSON(w, http.StatusOK, statusResponse{
		Linked:       h.ctrl.Linked(),
		State:        string(h.ctrl.State()),
		KeySaved:     cred != nil,
		TokenPresent: token != "",
		VoiceEnabled: h.capture != nil,
	})
}

type tokenRequest struct {
	Token string `json:"token"`
}

// SaveToken provisions the backend auth token the verifier presents.
func (h *Handler) SaveToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		Error(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := h.repo.SaveToken(r.Context(), req.Token); err != nil {
		slog.Error("Failed to save token", "error", err)
		Error(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type linkRequest struct {
	APIKey string `json:"apiKey"`
}

// Link verifies a pairing key and opens the relay session.
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.ctrl.Link(r.Context(), req.APIKey)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, map[string]string{"state": string(h.ctrl.State())})
	case errors.Is(err, session.ErrEmptyKey):
		Error(w, http.StatusBadRequest, "API Key is required.")
	case errors.Is(err, session.ErrNoToken):
		Error(w, http.StatusUnauthorized, "Sign in first to link your PC.")
	case errors.Is(err, pairing.ErrVerificationFailed):
		Error(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("Link failed", "error", err)
		Error(w, http.StatusBadGateway, "Could not connect to PC.")
	}
}

// Unlink disconnects the session and discards the stored credential.
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Disconnect(r.Context()); err != nil {
		slog.Error("Unlink failed", "error", err)
		Error(w, http.StatusInternalServerError, "disconnect failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commandRequest struct {
	Command string `json:"command"`
}

// Command dispatches a text command to the desktop agent. Blank commands
// are accepted and silently ignored.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.ctrl.Linked() {
		Error(w, http.StatusConflict, "no active session")
		return
	}
	if err := h.ctrl.Dispatch(r.Context(), req.Command); err != nil {
		slog.Error("Dispatch failed", "error", err)
		Error(w, http.StatusInternalServerError, "send failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transcript returns the session transcript snapshot.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"messages": h.ctrl.Transcript()})
}

// VoiceStatus reports voice capture availability and state.
func (h *Handler) VoiceStatus(w http.ResponseWriter, r *http.Request) {
	listening := false
	if h.capture != nil {
		listening = h.capture.Listening()
	}
	JSON(w, http.StatusOK, map[string]bool{
		"enabled":   h.capture != nil,
		"listening": listening,
	})
}

// VoiceStart begins a single-utterance capture. Starting while already
// listening leaves the in-flight capture untouched.
func (h *Handler) VoiceStart(w http.ResponseWriter, r *http.Request) {
	if h.capture == nil {
		Error(w, http.StatusConflict, "voice capture is not configured")
		return
	}
	h.capture.Start()
	JSON(w, http.StatusOK, map[string]bool{"listening": true})
}

// VoiceStop cancels an in-flight capture.
func (h *Handler) VoiceStop(w http.ResponseWriter, r *http.Request) {
	if h.capture == nil {
		Error(w, http.StatusConflict, "voice capture is not configured")
		return
	}
	h.capture.Stop()
	JSON(w, http.StatusOK, map[string]bool{"listening": false})
}
