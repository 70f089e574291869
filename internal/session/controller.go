// Package session owns the relay session: pairing, dispatch, transcript.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shaurya-crypto/aanya-link/internal/config"
	"github.com/shaurya-crypto/aanya-link/internal/domain"
	"github.com/shaurya-crypto/aanya-link/internal/pairing"
	"github.com/shaurya-crypto/aanya-link/internal/relay"
	"github.com/shaurya-crypto/aanya-link/internal/store"
)

var (
	// ErrEmptyKey indicates a link attempt with a blank API key.
	ErrEmptyKey = errors.New("API key is required")
	// ErrNoToken indicates no backend auth token has been provisioned.
	// Linking is gated on a signed-in session.
	ErrNoToken = errors.New("no auth token provisioned")
)

// RelayChannel is the slice of relay.Channel the controller depends on.
type RelayChannel interface {
	SendCommand(ctx context.Context, apiKey, command string) error
	State() relay.State
	Close() error
}

// CredentialVerifier confirms a pairing credential against the backend.
type CredentialVerifier interface {
	Verify(ctx context.Context, token, apiKey string) error
}

// DialFunc opens a relay channel. Injectable for tests.
type DialFunc func(ctx context.Context, baseURL, apiKey string, handlers relay.Handlers, logger *slog.Logger) (RelayChannel, error)

func defaultDial(ctx context.Context, baseURL, apiKey string, handlers relay.Handlers, logger *slog.Logger) (RelayChannel, error) {
	return relay.Dial(ctx, baseURL, apiKey, handlers, logger)
}

// Controller drives the relay session lifecycle: auto-connect from the
// stored credential, explicit linking, command dispatch, reply handling,
// and disconnect. It is the single owner of the credential cell and the
// channel reference.
type Controller struct {
	cfg      *config.Config
	repo     store.Repository
	verifier CredentialVerifier
	dial     DialFunc
	logger   *slog.Logger

	transcript *Transcript
	tlog       *TranscriptLogger

	mu      sync.Mutex
	apiKey  string
	channel RelayChannel
}

// NewController creates a session controller.
func NewController(cfg *config.Config, repo store.Repository, verifier CredentialVerifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:        cfg,
		repo:       repo,
		verifier:   verifier,
		dial:       defaultDial,
		logger:     logger,
		transcript: NewTranscript(),
	}
}

// SetDial overrides the relay dialer. Used by tests.
func (c *Controller) SetDial(dial DialFunc) {
	c.dial = dial
}

// SetTranscriptLogger attaches the optional NDJSON transcript log.
func (c *Controller) SetTranscriptLogger(tlog *TranscriptLogger) {
	c.tlog = tlog
}

// AutoConnect attempts to resume the session from the stored credential.
// An expired credential is purged and no connection is attempted. A
// rejected credential is purged as well; the user must re-link.
func (c *Controller) AutoConnect(ctx context.Context) error {
	cred, err := c.repo.GetCredential(ctx)
	if err != nil {
		return fmt.Errorf("read stored credential: %w", err)
	}
	if cred == nil {
		c.logger.Debug("No stored pairing credential")
		return nil
	}

	if cred.Expired(time.Now()) {
		c.logger.Info("Stored pairing credential expired, purging")
		if err := c.repo.DeleteCredential(ctx); err != nil {
			return fmt.Errorf("purge expired credential: %w", err)
		}
		return nil
	}

	token, err := c.repo.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("read auth token: %w", err)
	}
	if token == "" {
		return ErrNoToken
	}

	if err := c.verifier.Verify(ctx, token, cred.Key); err != nil {
		if errors.Is(err, pairing.ErrVerificationFailed) {
			c.logger.Warn("Stored credential rejected by backend, purging")
			if delErr := c.repo.DeleteCredential(ctx); delErr != nil {
				c.logger.Error("Failed to purge rejected credential", "error", delErr)
			}
		}
		return err
	}

	return c.connect(ctx, cred.Key)
}

// Link verifies a fresh API key, persists it with the configured validity
// window, and opens the relay channel.
func (c *Controller) Link(ctx context.Context, rawKey string) error {
	key := strings.TrimSpace(rawKey)
	if key == "" {
		return ErrEmptyKey
	}

	token, err := c.repo.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("read auth token: %w", err)
	}
	if token == "" {
		return ErrNoToken
	}

	if err := c.verifier.Verify(ctx, token, key); err != nil {
		return err
	}

	cred := &domain.PairingCredential{
		Key:       key,
		ExpiresAt: time.Now().Add(c.cfg.KeyTTL),
	}
	if err := c.repo.SaveCredential(ctx, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}

	return c.connect(ctx, key)
}

func (c *Controller) connect(ctx context.Context, key string) error {
	handlers := relay.Handlers{
		OnSystemMessage: c.handleSystemMessage,
		OnResponse:      c.handleResponse,
		OnDisconnect:    c.handleTransportDrop,
	}
	ch, err := c.dial(ctx, c.cfg.RelayURL, key, handlers, c.logger)
	if err != nil {
		return fmt.Errorf("open relay channel: %w", err)
	}

	c.mu.Lock()
	c.apiKey = key
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("Relay session established")
	return nil
}

// Dispatch forwards a command to the desktop agent. Blank input and
// dispatch without a live channel are silent no-ops: no transcript entry,
// no emission. The credential is read fresh at dispatch time so
// asynchronous callers (voice capture) never see a stale key.
func (c *Controller) Dispatch(ctx context.Context, text string) error {
	cmd := strings.TrimSpace(text)
	if cmd == "" {
		return nil
	}

	c.mu.Lock()
	ch := c.channel
	key := c.apiKey
	c.mu.Unlock()

	if ch == nil {
		c.logger.Debug("Dropping command, no relay channel", "command", cmd)
		return nil
	}

	c.append(domain.RoleUser, cmd)

	if err := ch.SendCommand(ctx, key, cmd); err != nil {
		c.logger.Warn("Failed to send command", "error", err)
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// Disconnect closes the channel, discards the stored credential, and
// resets the transcript to its seed entry. Further dispatches are dropped.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.channel = nil
	c.apiKey = ""
	c.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			c.logger.Debug("Failed to close relay channel", "error", err)
		}
	}

	if err := c.repo.DeleteCredential(ctx); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	c.transcript.Reset()
	c.logger.Info("Relay session disconnected")
	return nil
}

// Close tears down the relay channel without discarding the stored
// credential. Used at daemon shutdown so the next start can auto-connect.
func (c *Controller) Close() {
	c.mu.Lock()
	ch := c.channel
	c.channel = nil
	c.apiKey = ""
	c.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			c.logger.Debug("Failed to close relay channel", "error", err)
		}
	}
}

// Linked reports whether a relay channel is currently held.
func (c *Controller) Linked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel != nil
}

// State returns the relay channel state, or disconnected when none is held.
func (c *Controller) State() relay.State {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return relay.StateDisconnected
	}
	return ch.State()
}

// Transcript returns a snapshot of the session transcript.
func (c *Controller) Transcript() []domain.Message {
	return c.transcript.Snapshot()
}

func (c *Controller) append(role domain.Role, text string) {
	msg := c.transcript.Append(role, text)
	if c.tlog != nil {
		if err := c.tlog.Log(msg); err != nil {
			c.logger.Warn("Failed to write transcript log", "error", err)
		}
	}
}

func (c *Controller) handleSystemMessage(text string) {
	c.append(domain.RoleSystem, text)
}

func (c *Controller) handleResponse(text string, role domain.Role) {
	c.append(role, text)
}

// handleTransportDrop surfaces an unexpected mid-session disconnect. The
// stored credential is kept; reconnection is manual only.
func (c *Controller) handleTransportDrop(err error) {
	c.logger.Warn("Relay transport dropped", "error", err)

	c.mu.Lock()
	c.channel = nil
	c.apiKey = ""
	c.mu.Unlock()

	c.append(domain.RoleSystem, "Connection to your PC was lost. Re-link to continue.")
}
