package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// CommandDispatcher receives finalized transcripts.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, text string) error
}

// Capture toggles single-utterance voice capture. On a finalized
// transcript it dispatches the text immediately and returns to idle; any
// recognition error also returns it to idle without dispatching. Starting
// while already listening is a no-op.
type Capture struct {
	rec        Recognizer
	dispatcher CommandDispatcher
	lang       string
	logger     *slog.Logger

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc
}

// NewCapture creates a capture wrapper around the given recognizer.
func NewCapture(rec Recognizer, dispatcher CommandDispatcher, lang string, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{rec: rec, dispatcher: dispatcher, lang: lang, logger: logger}
}

// Listening reports whether a capture is in flight.
func (c *Capture) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Start begins a capture. Returns false if one is already in flight.
func (c *Capture) Start() bool {
	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.listening = true
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info("Voice capture started", "lang", c.lang)
	go c.run(ctx)
	return true
}

// Stop cancels an in-flight capture. No-op when idle.
func (c *Capture) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Capture) run(ctx context.Context) {
	defer c.setIdle()

	transcript, err := c.rec.Listen(ctx, c.lang)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("Voice capture cancelled")
		} else {
			c.logger.Warn("Voice capture failed", "error", err)
		}
		return
	}
	if strings.TrimSpace(transcript) == "" {
		c.logger.Debug("Voice capture produced no speech")
		return
	}

	c.logger.Info("Voice transcript recognized", "chars", len(transcript))
	if err := c.dispatcher.Dispatch(context.Background(), transcript); err != nil {
		c.logger.Warn("Failed to dispatch voice command", "error", err)
	}
}

func (c *Capture) setIdle() {
	c.mu.Lock()
	c.listening = false
	c.cancel = nil
	c.mu.Unlock()
}
