package domain

import (
	"time"
)

// PairingCredential authorizes this session to relay commands to one
// desktop agent instance. The expiry is client-assigned at link time.
type PairingCredential struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the credential's validity window has passed.
func (c *PairingCredential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// TTL returns the time until the credential expires.
// Returns 0 if it has already expired.
func (c *PairingCredential) TTL(now time.Time) time.Duration {
	ttl := c.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
