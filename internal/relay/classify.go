package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

// errorMarkers are the substrings that flag a reply as a failure. This is
// a keyword heuristic matched against the backend's phrasing, not a
// structured error code; a benign sentence containing one of these words
// is still flagged. Kept as-is for backend compatibility.
var errorMarkers = []string{"error", "limit", "timeout", "failed"}

// ExtractReply pulls the reply text out of a receive_response payload.
// The relay delivers either a bare JSON string or an object carrying a
// "reply" field; both shapes must be accepted.
func ExtractReply(raw []byte) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var obj struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode reply payload: %w", err)
	}
	return obj.Reply, nil
}

// Classify tags a reply as an error or a normal agent message by
// case-insensitive substring scan.
func Classify(reply string) domain.Role {
	lower := strings.ToLower(reply)
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			return domain.RoleError
		}
	}
	return domain.RolePC
}
