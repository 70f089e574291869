// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

// Repository defines the interface for persisting session state. It holds
// at most one pairing credential and one backend auth token, the daemon
// being single-user by design.
type Repository interface {
	// GetCredential retrieves the stored pairing credential.
	// Returns (nil, nil) when no credential is stored. An expired
	// credential is returned as-is; expiry handling is the caller's.
	GetCredential(ctx context.Context) (*domain.PairingCredential, error)

	// SaveCredential stores the pairing credential, replacing any
	// previous one.
	SaveCredential(ctx context.Context, cred *domain.PairingCredential) error

	// DeleteCredential removes the stored pairing credential.
	// Deleting when none is stored is not an error.
	DeleteCredential(ctx context.Context) error

	// GetToken retrieves the backend auth token. Returns "" when none
	// is stored.
	GetToken(ctx context.Context) (string, error)

	// SaveToken stores the backend auth token, replacing any previous one.
	SaveToken(ctx context.Context, token string) error

	// DeleteToken removes the stored auth token.
	DeleteToken(ctx context.Context) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
