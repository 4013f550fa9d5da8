// Package domain contains core concepts of the conversation system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

// Participant links one User to one Conversation.
// HasSeenLatestMessage is scoped to this participant only.
type Participant struct {
	ID                   string
	ConversationID       string
	User                 User
	HasSeenLatestMessage bool
}

func (p Participant) UserID() string {
	return p.User.ID
}
