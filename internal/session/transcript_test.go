package session

import (
	"testing"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

func TestTranscriptSeed(t *testing.T) {
	tr := NewTranscript()

	entries := tr.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 seed entry, got %d", len(entries))
	}
	if entries[0].Role != domain.RoleSystem {
		t.Errorf("Expected system seed entry, got %v", entries[0].Role)
	}
	if entries[0].Text != greeting {
		t.Errorf("Unexpected seed text: %q", entries[0].Text)
	}
}

func TestTranscriptAppendOrder(t *testing.T) {
	tr := NewTranscript()

	tr.Append(domain.RoleUser, "Open Spotify")
	tr.Append(domain.RolePC, "Spotify khol diya")

	entries := tr.Snapshot()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[1].Role != domain.RoleUser || entries[1].Text != "Open Spotify" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
	if entries[2].Role != domain.RolePC || entries[2].Text != "Spotify khol diya" {
		t.Errorf("Unexpected third entry: %+v", entries[2])
	}
	if entries[1].ID == entries[2].ID {
		t.Error("Entries must have distinct IDs")
	}
}

func TestTranscriptSnapshotIsCopy(t *testing.T) {
	tr := NewTranscript()
	snap := tr.Snapshot()
	snap[0].Text = "mutated"

	if tr.Snapshot()[0].Text != greeting {
		t.Error("Snapshot mutation leaked into transcript")
	}
}

func TestTranscriptReset(t *testing.T) {
	tr := NewTranscript()
	tr.Append(domain.RoleUser, "Open Spotify")
	tr.Append(domain.RoleError, "Request failed")

	tr.Reset()

	entries := tr.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("Expected reset to single seed entry, got %d", len(entries))
	}
	if entries[0].Role != domain.RoleSystem || entries[0].Text != greeting {
		t.Errorf("Unexpected entry after reset: %+v", entries[0])
	}
}
