package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaurya-crypto/aanya-link/internal/shared"
	"github.com/shaurya-crypto/aanya-link/internal/store"
)

// deleteCredentialWithRetry attempts to delete the stored credential with
// exponential backoff to handle SQLITE_BUSY errors.
func deleteCredentialWithRetry(ctx context.Context, repo store.Repository) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := repo.DeleteCredential(ctx)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("Credential delete hit a busy database, retrying",
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}

		return err
	}
	return nil
}

// StartExpiryWatcher runs a background loop that enforces the credential's
// validity window: when the expiry passes mid-session the session is torn
// down, and a stale stored credential is purged even while idle. Stops
// when ctx is cancelled.
func StartExpiryWatcher(ctx context.Context, ctrl *Controller, repo store.Repository, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepExpired(ctx, ctrl, repo)
			}
		}
	}()
}

func sweepExpired(ctx context.Context, ctrl *Controller, repo store.Repository) {
	cred, err := repo.GetCredential(ctx)
	if err != nil {
		slog.Warn("Expiry watcher failed to read credential", "error", err)
		return
	}
	if cred == nil || !cred.Expired(time.Now()) {
		return
	}

	if ctrl.Linked() {
		slog.Info("Pairing credential expired mid-session, disconnecting")
		if err := ctrl.Disconnect(ctx); err != nil {
			slog.Error("Expiry watcher failed to disconnect", "error", err)
		}
		return
	}

	slog.Info("Purging expired pairing credential")
	if err := deleteCredentialWithRetry(ctx, repo); err != nil {
		slog.Error("Expiry watcher failed to purge credential", "error", err)
	}
}
