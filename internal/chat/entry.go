package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a transcript entry.
type Role string

// Transcript roles.
const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleBot, RoleSystem:
		return true
	}
	return false
}

// Entry is one line of the conversation.
type Entry struct {
	ID   string    `json:"id"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// NewEntry stamps text with a fresh ID and the current UTC time.
func NewEntry(role Role, text string) Entry {
	return Entry{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		At:   time.Now().UTC(),
	}
}
