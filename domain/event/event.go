package event

import (
	"convo-hub/domain"
	"slices"
)

// Topic is a named channel. The set is fixed at compile time.
type Topic string

const (
	ConversationCreatedTopic Topic = "conversationCreated"
	ConversationUpdatedTopic Topic = "conversationUpdated"
	ConversationDeletedTopic Topic = "conversationDeleted"
	MessageCreatedTopic      Topic = "messageCreated"
)

// Topics lists every topic the bus serves.
var Topics = []Topic{
	ConversationCreatedTopic,
	ConversationUpdatedTopic,
	ConversationDeletedTopic,
	MessageCreatedTopic,
}

func (t Topic) Valid() bool {
	return slices.Contains(Topics, t)
}

// DomainEvent is a published payload. Values are never mutated after
// construction; use the New* constructors so slices are not shared.
type DomainEvent interface {
	Topic() Topic
}

type ConversationCreated struct {
	Conversation domain.Conversation
}

type ConversationUpdated struct {
	Conversation          domain.Conversation
	AddedParticipantIDs   []string
	RemovedParticipantIDs []string
}

type ConversationDeleted struct {
	Conversation domain.Conversation
}

type MessageCreated struct {
	Message domain.Message
}

func (ConversationCreated) Topic() Topic { return ConversationCreatedTopic }
func (ConversationUpdated) Topic() Topic { return ConversationUpdatedTopic }
func (ConversationDeleted) Topic() Topic { return ConversationDeletedTopic }
func (MessageCreated) Topic() Topic      { return MessageCreatedTopic }

func NewConversationCreated(c domain.Conversation) ConversationCreated {
	return ConversationCreated{Conversation: snapshot(c)}
}

func NewConversationUpdated(c domain.Conversation, added, removed []string) ConversationUpdated {
	return ConversationUpdated{
		Conversation:          snapshot(c),
		AddedParticipantIDs:   slices.Clone(added),
		RemovedParticipantIDs: slices.Clone(removed),
	}
}

func NewConversationDeleted(c domain.Conversation) ConversationDeleted {
	return ConversationDeleted{Conversation: snapshot(c)}
}

func NewMessageCreated(m domain.Message) MessageCreated {
	return MessageCreated{Message: m}
}

func snapshot(c domain.Conversation) domain.Conversation {
	c.Participants = slices.Clone(c.Participants)
	if c.LatestMessage != nil {
		latest := *c.LatestMessage
		c.LatestMessage = &latest
	}
	return c
}
