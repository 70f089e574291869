package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newVerifier(baseURL string) *Verifier {
	return NewVerifier(DefaultVerifierConfig(baseURL), nil)
}

func TestVerifySuccess(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/user/verify-pc-link" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			APIKey string `json:"apiKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		gotKey = body.APIKey

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newVerifier(srv.URL).Verify(context.Background(), "jwt-token", "aanya_abc123")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if gotAuth != "Bearer jwt-token" {
		t.Errorf("Expected bearer token header, got %q", gotAuth)
	}
	if gotKey != "aanya_abc123" {
		t.Errorf("Expected apiKey in body, got %q", gotKey)
	}
}

func TestVerifyRejectedWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid or expired API key"}`))
	}))
	defer srv.Close()

	err := newVerifier(srv.URL).Verify(context.Background(), "jwt-token", "aanya_bad")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("Expected ErrVerificationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid or expired API key") {
		t.Errorf("Expected backend message in error, got %q", err.Error())
	}
}

func TestVerifyRejectedWithoutBody(t *testing.T) {
	statuses := []int{http.StatusBadRequest, http.StatusForbidden, http.StatusInternalServerError}
	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		err := newVerifier(srv.URL).Verify(context.Background(), "jwt-token", "aanya_abc123")
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("Status %d: expected ErrVerificationFailed, got %v", status, err)
		}
		srv.Close()
	}
}

func TestVerifyNetworkError(t *testing.T) {
	err := newVerifier("http://127.0.0.1:1").Verify(context.Background(), "jwt-token", "aanya_abc123")
	if err == nil {
		t.Fatal("Expected error for unreachable backend")
	}
	if errors.Is(err, ErrVerificationFailed) {
		t.Errorf("Network failure must not look like a rejection: %v", err)
	}
}
