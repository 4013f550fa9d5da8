// Package domain contains core concepts of the conversation system.
// This file defines Message entities and related rules.
// Messages are immutable once created.
package domain

import (
	"time"
)

// Message represents an immutable chat message.
type Message struct {
	ID             string
	ConversationID string
	Sender         User
	Content        string
	CreatedAt      time.Time
}
