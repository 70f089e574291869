package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

// greeting seeds the transcript; the view shows it before any traffic.
const greeting = "Secure End-to-End connection established."

// Transcript is the ordered, append-only sequence of display messages for
// the current relay session. It lives in memory only; Reset returns it to
// the single seed entry.
type Transcript struct {
	mu      sync.Mutex
	entries []domain.Message
}

// NewTranscript creates a transcript seeded with the initial system entry.
func NewTranscript() *Transcript {
	t := &Transcript{}
	t.seed()
	return t
}

func (t *Transcript) seed() {
	t.entries = []domain.Message{{
		ID:        "sys-1",
		Text:      greeting,
		Role:      domain.RoleSystem,
		Timestamp: time.Now(),
	}}
}

// Append adds an entry and returns it.
func (t *Transcript) Append(role domain.Role, text string) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Text:      text,
		Role:      role,
		Timestamp: time.Now(),
	}
	t.mu.Lock()
	t.entries = append(t.entries, msg)
	t.mu.Unlock()
	return msg
}

// Snapshot returns a copy of all entries in insertion order.
func (t *Transcript) Snapshot() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reset clears the transcript back to the single seed entry.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.seed()
	t.mu.Unlock()
}
