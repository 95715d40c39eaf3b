package chat

import (
	"time"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status tracks delivery of a message through a turn.
type Status string

const (
	StatusSending  Status = "sending"
	StatusSent     Status = "sent"
	StatusReceived Status = "received"
	StatusError    Status = "error"
)

// TimestampLayout matches the two-digit hour/minute clock shown next to bubbles.
const TimestampLayout = "03:04 PM"

// Message is one entry in a conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status"`
	// Emotion is set on user messages.
	Emotion emotion.Label `json:"emotion,omitempty"`
	// RespondingTo is the user emotion an assistant reply was written against.
	RespondingTo emotion.Label `json:"respondingTo,omitempty"`
	// Placeholder marks the greeting bubble, which is never sent to the model.
	Placeholder bool `json:"placeholder,omitempty"`
}

// FormatTimestamp renders t for display.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
