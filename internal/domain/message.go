// Package domain contains core domain types for the aanya-link session.
package domain

import (
	"time"
)

// Role identifies the origin of a transcript message.
type Role string

const (
	// RoleUser is a command typed or spoken by the user.
	RoleUser Role = "user"
	// RolePC is a normal reply from the desktop agent.
	RolePC Role = "pc"
	// RoleSystem is a connection lifecycle notice.
	RoleSystem Role = "system"
	// RoleError is a reply classified as a failure.
	RoleError Role = "error"
)

// Message is a single transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}
