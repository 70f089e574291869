package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "aanya-link.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCredentialRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got != nil {
		t.Fatalf("Expected no credential in fresh store, got %+v", got)
	}

	expiry := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Millisecond)
	cred := &domain.PairingCredential{Key: "aanya_abc123", ExpiresAt: expiry}
	if err := repo.SaveCredential(ctx, cred); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}

	got, err = repo.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected credential, got nil")
	}
	if got.Key != "aanya_abc123" {
		t.Errorf("Expected key aanya_abc123, got %q", got.Key)
	}
	if !got.ExpiresAt.Equal(expiry) {
		t.Errorf("Expected expiry %v, got %v", expiry, got.ExpiresAt)
	}
}

func TestSaveCredentialReplaces(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	first := &domain.PairingCredential{Key: "aanya_old", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.SaveCredential(ctx, first); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}
	second := &domain.PairingCredential{Key: "aanya_new", ExpiresAt: time.Now().Add(2 * time.Hour)}
	if err := repo.SaveCredential(ctx, second); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}

	got, err := repo.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.Key != "aanya_new" {
		t.Errorf("Expected replacement key, got %q", got.Key)
	}
}

func TestDeleteCredential(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	// Deleting with nothing stored is not an error.
	if err := repo.DeleteCredential(ctx); err != nil {
		t.Fatalf("DeleteCredential on empty store failed: %v", err)
	}

	cred := &domain.PairingCredential{Key: "aanya_abc123", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.SaveCredential(ctx, cred); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}
	if err := repo.DeleteCredential(ctx); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}

	got, err := repo.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected credential gone, got %+v", got)
	}
}

func TestExpiredCredentialIsReturnedAsIs(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	cred := &domain.PairingCredential{Key: "aanya_stale", ExpiresAt: time.Now().Add(-time.Second)}
	if err := repo.SaveCredential(ctx, cred); err != nil {
		t.Fatalf("SaveCredential failed: %v", err)
	}

	got, err := repo.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected expired credential to be returned for the caller to purge")
	}
	if !got.Expired(time.Now()) {
		t.Error("Expected credential to report expired")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	token, err := repo.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if token != "" {
		t.Fatalf("Expected no token in fresh store, got %q", token)
	}

	if err := repo.SaveToken(ctx, "jwt-one"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := repo.SaveToken(ctx, "jwt-two"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	token, err = repo.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if token != "jwt-two" {
		t.Errorf("Expected latest token, got %q", token)
	}

	if err := repo.DeleteToken(ctx); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	token, err = repo.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if token != "" {
		t.Errorf("Expected token gone, got %q", token)
	}
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
