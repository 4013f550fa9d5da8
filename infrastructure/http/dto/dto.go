// Package dto holds the JSON shapes shared by the HTTP handlers and the
// websocket subscription frames.
package dto

import (
	"convo-hub/domain"
	"convo-hub/domain/event"
	"time"

	"github.com/samber/lo"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

type Participant struct {
	ID                   string `json:"id"`
	User                 User   `json:"user"`
	HasSeenLatestMessage bool   `json:"hasSeenLatestMessage"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         User      `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Conversation struct {
	ID            string        `json:"id"`
	Participants  []Participant `json:"participants"`
	LatestMessage *Message      `json:"latestMessage"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type CreateConversationResponse struct {
	ConversationID string `json:"conversationId"`
	IsCreated      bool   `json:"isCreated"`
}

type ParticipantsRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

type CreateMessageRequest struct {
	Content string `json:"content"`
}

type ConversationUpdated struct {
	Conversation          Conversation `json:"conversation"`
	AddedParticipantIDs   []string     `json:"addedParticipantIds"`
	RemovedParticipantIDs []string     `json:"removedParticipantIds"`
}

type ConversationPayload struct {
	Conversation Conversation `json:"conversation"`
}

type MessagePayload struct {
	Message Message `json:"message"`
}

func FromUser(u domain.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}

func FromUsers(users []domain.User) []User {
	return lo.Map(users, func(u domain.User, _ int) User { return FromUser(u) })
}

func FromMessage(m domain.Message) Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         FromUser(m.Sender),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func FromMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(m domain.Message, _ int) Message { return FromMessage(m) })
}

func FromConversation(c domain.Conversation) Conversation {
	conversation := Conversation{
		ID: c.ID,
		Participants: lo.Map(c.Participants, func(p domain.Participant, _ int) Participant {
			return Participant{ID: p.ID, User: FromUser(p.User), HasSeenLatestMessage: p.HasSeenLatestMessage}
		}),
		UpdatedAt: c.UpdatedAt,
	}
	if c.LatestMessage != nil {
		conversation.LatestMessage = lo.ToPtr(FromMessage(*c.LatestMessage))
	}
	return conversation
}

func FromConversations(conversations []domain.Conversation) []Conversation {
	return lo.Map(conversations, func(c domain.Conversation, _ int) Conversation { return FromConversation(c) })
}

// FromEvent renders the payload pushed to subscribers.
func FromEvent(evt event.DomainEvent) any {
	switch e := evt.(type) {
	case event.ConversationCreated:
		return ConversationPayload{Conversation: FromConversation(e.Conversation)}
	case event.ConversationUpdated:
		return ConversationUpdated{
			Conversation:          FromConversation(e.Conversation),
			AddedParticipantIDs:   lo.Ternary(e.AddedParticipantIDs == nil, []string{}, e.AddedParticipantIDs),
			RemovedParticipantIDs: lo.Ternary(e.RemovedParticipantIDs == nil, []string{}, e.RemovedParticipantIDs),
		}
	case event.ConversationDeleted:
		return ConversationPayload{Conversation: FromConversation(e.Conversation)}
	case event.MessageCreated:
		return MessagePayload{Message: FromMessage(e.Message)}
	default:
		return nil
	}
}
