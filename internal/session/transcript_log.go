package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

// TranscriptLogger appends transcript entries to an NDJSON file. It is
// opt-in; the live transcript itself is never persisted.
type TranscriptLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewTranscriptLogger opens (or creates) the log file for appending.
func NewTranscriptLogger(path string) (*TranscriptLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create transcript log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open transcript log: %w", err)
	}
	return &TranscriptLogger{file: f}, nil
}

// Log writes one entry as a single NDJSON line.
func (l *TranscriptLogger) Log(msg domain.Message) error {
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode transcript entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write transcript entry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *TranscriptLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
