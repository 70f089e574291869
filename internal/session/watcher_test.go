package session

import (
	"context"
	"testing"
	"time"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

func TestSweepExpiredPurgesIdleCredential(t *testing.T) {
	repo := &memRepo{
		token: "jwt",
		cred: &domain.PairingCredential{
			Key:       "aanya_stale",
			ExpiresAt: time.Now().Add(-time.Second),
		},
	}
	ctrl, _ := newTestController(repo, &fakeVerifier{})

	sweepExpired(context.Background(), ctrl, repo)

	if repo.credential() != nil {
		t.Error("Expected expired credential to be purged")
	}
}

func TestSweepExpiredDisconnectsLiveSession(t *testing.T) {
	repo := &memRepo{token: "jwt"}
	ctrl, rec := newTestController(repo, &fakeVerifier{})
	if err := ctrl.Link(context.Background(), "aanya_abc123"); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	// Force the stored expiry into the past while the session is live.
	repo.mu.Lock()
	repo.cred.ExpiresAt = time.Now().Add(-time.Second)
	repo.mu.Unlock()

	sweepExpired(context.Background(), ctrl, repo)

	if ctrl.Linked() {
		t.Error("Expected session torn down on expiry")
	}
	if !rec.channel.isClosed() {
		t.Error("Expected relay channel closed on expiry")
	}
	if repo.credential() != nil {
		t.Error("Expected credential purged on expiry")
	}
}

func TestSweepLeavesValidCredentialAlone(t *testing.T) {
	repo := &memRepo{
		token: "jwt",
		cred: &domain.PairingCredential{
			Key:       "aanya_abc123",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	ctrl, _ := newTestController(repo, &fakeVerifier{})

	sweepExpired(context.Background(), ctrl, repo)

	if repo.credential() == nil {
		t.Error("Valid credential must not be purged")
	}
}
