package services

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/repositories"
	stderrors "errors"
	"fmt"
	"log/slog"
)

// Access is the single exists-and-authorized check run before any
// conversation-scoped operation.
type Access struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
}

func NewAccess(log *slog.Logger, conversations repositories.IConversationRepository) Access {
	return Access{log: log, conversations: conversations}
}

// ExistsAndAuthorized returns the conversation when userID participates in it.
// A missing conversation and a conversation the user is not part of both
// yield ErrConversationNotFound, so existence never leaks.
func (a Access) ExistsAndAuthorized(conversationID, userID string) (domain.Conversation, error) {
	conversation, err := a.conversations.FindConversationForParticipant(conversationID, userID)
	if err != nil {
		return domain.Conversation{}, internal(a.log, "find conversation for participant", err)
	}
	if conversation == nil {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	return *conversation, nil
}

// begin runs the checks shared by every operation, in order: a session is
// present, no fan-out failure is pending for this user, the request is valid.
func begin(publisher *Publisher, session *domain.Session, cmd domain.Command) error {
	if !session.Authenticated() {
		return errors.ErrMissingSession
	}
	if err := publisher.TakeFault(session.UserID); err != nil {
		return err
	}
	return cmd.Validate()
}

// internal keeps classified errors as they are and turns everything else
// into ErrInternal, logging the detail that the client will not see.
func internal(log *slog.Logger, op string, err error) error {
	for _, kind := range []error{errors.ErrUnauthenticated, errors.ErrForbidden,
		errors.ErrNotFound, errors.ErrInvalidInput, errors.ErrInternal} {
		if stderrors.Is(err, kind) {
			return err
		}
	}
	log.Error("Store operation failed", "operation", op, "error", err)
	return fmt.Errorf("%w: %s: %v", errors.ErrInternal, op, err)
}
