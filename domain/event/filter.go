package event

import (
	"convo-hub/domain"
	"slices"
)

// Admission is the outcome of a Filter.
type Admission int

const (
	// Deny means the event is not relevant to this subscriber.
	Deny Admission = iota
	Admit
	// AuthError means the subscriber has no valid identity. The subscription
	// is terminated instead of silently skipped.
	AuthError
)

func (a Admission) String() string {
	switch a {
	case Admit:
		return "admit"
	case AuthError:
		return "auth_error"
	default:
		return "deny"
	}
}

// Filter decides whether one subscriber receives one event.
type Filter func(evt DomainEvent) Admission

// ConversationCreatedFilter admits the event when the session user is one of
// the new conversation's participants.
func ConversationCreatedFilter(session *domain.Session) Filter {
	return func(evt DomainEvent) Admission {
		if !session.Authenticated() {
			return AuthError
		}
		created, ok := evt.(ConversationCreated)
		if !ok {
			return Deny
		}
		return admitIf(created.Conversation.HasParticipant(session.UserID))
	}
}

// ConversationUpdatedFilter admits current participants and the users removed
// by this very update, so they learn about their removal.
func ConversationUpdatedFilter(session *domain.Session) Filter {
	return func(evt DomainEvent) Admission {
		if !session.Authenticated() {
			return AuthError
		}
		updated, ok := evt.(ConversationUpdated)
		if !ok {
			return Deny
		}
		return admitIf(updated.Conversation.HasParticipant(session.UserID) ||
			slices.Contains(updated.RemovedParticipantIDs, session.UserID))
	}
}

// ConversationDeletedFilter relies on the participant snapshot carried by the
// event, membership can no longer be queried once deleted.
func ConversationDeletedFilter(session *domain.Session) Filter {
	return func(evt DomainEvent) Admission {
		if !session.Authenticated() {
			return AuthError
		}
		deleted, ok := evt.(ConversationDeleted)
		if !ok {
			return Deny
		}
		return admitIf(deleted.Conversation.HasParticipant(session.UserID))
	}
}

// MessageCreatedFilter is a relevance filter only. Whether the subscriber may
// read conversationID is checked once, when the subscription is opened.
func MessageCreatedFilter(conversationID string) Filter {
	return func(evt DomainEvent) Admission {
		created, ok := evt.(MessageCreated)
		if !ok {
			return Deny
		}
		return admitIf(created.Message.ConversationID == conversationID)
	}
}

func admitIf(ok bool) Admission {
	if ok {
		return Admit
	}
	return Deny
}
