// Package speech integrates single-utterance voice capture with command
// dispatch. Recognition itself is delegated to a local voice orchestrator
// reached over websocket.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coder/websocket"
)

// Recognizer captures one utterance and returns the final transcript.
// Implementations return only finalized results, never interim ones.
type Recognizer interface {
	Listen(ctx context.Context, lang string) (string, error)
}

// ErrRecognition indicates the orchestrator reported a capture failure.
var ErrRecognition = errors.New("speech recognition failed")

// WSRecognizer is a Recognizer backed by a voice orchestrator websocket
// endpoint (e.g. ws://localhost:8765/ws/voice).
type WSRecognizer struct {
	url    string
	logger *slog.Logger
}

// NewWSRecognizer creates a recognizer for the given orchestrator URL.
func NewWSRecognizer(url string, logger *slog.Logger) *WSRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRecognizer{url: url, logger: logger}
}

type listenRequest struct {
	Action string `json:"action"`
	Lang   string `json:"lang"`
}

type transcriptEvent struct {
	Transcript string `json:"transcript"`
	Final      bool   `json:"final"`
	Error      string `json:"error,omitempty"`
}

// Listen opens a capture session and blocks until the orchestrator
// delivers the first final transcript, an error, or ctx is cancelled.
func (r *WSRecognizer) Listen(ctx context.Context, lang string) (string, error) {
	conn, _, err := websocket.Dial(ctx, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("dial voice orchestrator: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "capture done"); closeErr != nil {
			r.logger.Debug("Failed to close voice websocket", "error", closeErr)
		}
	}()

	req, err := json.Marshal(listenRequest{Action: "listen", Lang: lang})
	if err != nil {
		return "", fmt.Errorf("encode listen request: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		return "", fmt.Errorf("request capture: %w", err)
	}

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}

		var ev transcriptEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			r.logger.Warn("Bad transcript event", "error", err)
			continue
		}
		if ev.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrRecognition, ev.Error)
		}
		if ev.Final {
			return ev.Transcript, nil
		}
		// Interim results are ignored; capture is final-result-only.
	}
}
