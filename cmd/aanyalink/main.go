// aanya-link - local companion daemon for remote PC control
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/shaurya-crypto/aanya-link/internal/api"
	"github.com/shaurya-crypto/aanya-link/internal/config"
	"github.com/shaurya-crypto/aanya-link/internal/middleware"
	"github.com/shaurya-crypto/aanya-link/internal/pairing"
	"github.com/shaurya-crypto/aanya-link/internal/session"
	"github.com/shaurya-crypto/aanya-link/internal/speech"
	"github.com/shaurya-crypto/aanya-link/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting aanya-link", "port", cfg.Port, "relay", cfg.RelayURL, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready")

	verifier := pairing.NewVerifier(pairing.DefaultVerifierConfig(cfg.APIBaseURL), logger)
	ctrl := session.NewController(cfg, repo, verifier, logger)

	if cfg.TranscriptLog.Enabled {
		tlog, err := session.NewTranscriptLogger(cfg.TranscriptLog.Path)
		if err != nil {
			slog.Error("Failed to initialize transcript log", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := tlog.Close(); closeErr != nil {
				slog.Error("Failed to close transcript log", "error", closeErr)
			}
		}()
		ctrl.SetTranscriptLogger(tlog)
		slog.Info("Transcript log enabled", "path", cfg.TranscriptLog.Path)
	}

	// Voice capture is optional: it needs a local voice orchestrator.
	var capture *speech.Capture
	if cfg.VoiceEnabled() {
		recognizer := speech.NewWSRecognizer(cfg.VoiceWSURL, logger)
		capture = speech.NewCapture(recognizer, ctrl, cfg.VoiceLang, logger)
		slog.Info("Voice capture enabled", "url", cfg.VoiceWSURL, "lang", cfg.VoiceLang)
	} else {
		slog.Info("Voice capture disabled (VOICE_WS_URL not set)")
	}

	// Resume the session from a stored credential when one is still valid.
	autoCtx, autoCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ctrl.AutoConnect(autoCtx); err != nil {
		if errors.Is(err, session.ErrNoToken) {
			slog.Warn("Stored credential present but no auth token; provision one via POST /api/token")
		} else {
			slog.Warn("Auto-connect failed, waiting for manual link", "error", err)
		}
	}
	autoCancel()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.FrontendURL))

	handler := api.NewHandler(ctrl, repo, capture, cfg)
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Enforce the credential validity window in the background.
	session.StartExpiryWatcher(ctx, ctrl, repo, time.Minute)
	slog.Info("Expiry watcher started", "key_ttl", cfg.KeyTTL)

	// Start server.
	go func() {
		slog.Info("Control API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	// Close the relay transport but keep the credential for the next start.
	ctrl.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Daemon stopped successfully")
}
