// Package pairing verifies pairing credentials against the backend.
package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ErrVerificationFailed indicates the backend rejected the credential.
// Any non-2xx status maps to this error regardless of response body.
var ErrVerificationFailed = errors.New("pairing verification failed")

const verifyPath = "/user/verify-pc-link"

// Verifier checks a pairing credential against the backend's
// verify-pc-link endpoint using the signed-in session's bearer token.
type Verifier struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// VerifierConfig holds configuration for the verifier.
type VerifierConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// DefaultVerifierConfig returns default configuration.
func DefaultVerifierConfig(baseURL string) VerifierConfig {
	return VerifierConfig{
		BaseURL:        baseURL,
		RequestTimeout: 15 * time.Second,
	}
}

// NewVerifier creates a verifier for the given backend base URL.
func NewVerifier(cfg VerifierConfig, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

type verifyRequest struct {
	APIKey string `json:"apiKey"`
}

type verifyError struct {
	Error string `json:"error"`
}

// Verify confirms the credential is valid and bound to the signed-in
// account. Success requires a 2xx status; anything else is
// ErrVerificationFailed carrying the backend's message when one is present.
func (v *Verifier) Verify(ctx context.Context, token, apiKey string) error {
	body, err := json.Marshal(verifyRequest{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+verifyPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("verify request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			v.logger.Debug("failed to close verify response body", "error", closeErr)
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		v.logger.Info("Pairing credential verified")
		return nil
	}

	var ve verifyError
	if decodeErr := json.NewDecoder(resp.Body).Decode(&ve); decodeErr == nil && ve.Error != "" {
		v.logger.Warn("Pairing verification rejected", "status", resp.StatusCode, "message", ve.Error)
		return fmt.Errorf("%w: %s", ErrVerificationFailed, ve.Error)
	}

	v.logger.Warn("Pairing verification rejected", "status", resp.StatusCode)
	return fmt.Errorf("%w: status %d", ErrVerificationFailed, resp.StatusCode)
}
