package session

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

func TestTranscriptLoggerWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "transcript.ndjson")

	tlog, err := NewTranscriptLogger(path)
	if err != nil {
		t.Fatalf("NewTranscriptLogger failed: %v", err)
	}
	defer func() { _ = tlog.Close() }()

	tr := NewTranscript()
	first := tr.Append(domain.RoleUser, "Open Spotify")
	second := tr.Append(domain.RolePC, "Spotify khol diya")
	for _, msg := range []domain.Message{first, second} {
		if err := tlog.Log(msg); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log: %v", err)
	}
	defer func() { _ = f.Close() }()

	var lines []domain.Message
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var msg domain.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.Fatalf("Bad NDJSON line: %v", err)
		}
		lines = append(lines, msg)
	}

	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	if lines[0].Text != "Open Spotify" || lines[1].Role != domain.RolePC {
		t.Errorf("Unexpected log contents: %+v", lines)
	}
}
