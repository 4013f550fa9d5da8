package services

import (
	"context"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/repositories"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

type IMessageService interface {
	Messages(session *domain.Session, query domain.GetMessagesQuery) ([]domain.Message, error)
	CreateMessage(ctx context.Context, session *domain.Session, cmd domain.CreateMessageCommand) (domain.Message, error)
}

type MessageService struct {
	log              *slog.Logger
	conversations    repositories.IConversationRepository
	messages         repositories.IMessageRepository
	access           Access
	publisher        *Publisher
	maxContentLength int
}

func NewMessageService(log *slog.Logger, conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository, publisher *Publisher, maxContentLength int) *MessageService {
	return &MessageService{
		log:              log,
		conversations:    conversations,
		messages:         messages,
		access:           NewAccess(log, conversations),
		publisher:        publisher,
		maxContentLength: maxContentLength,
	}
}

func (s *MessageService) Messages(session *domain.Session, query domain.GetMessagesQuery) ([]domain.Message, error) {
	if err := begin(s.publisher, session, query); err != nil {
		return nil, err
	}
	if _, err := s.access.ExistsAndAuthorized(query.ConversationID, session.UserID); err != nil {
		return nil, err
	}
	messages, err := s.messages.FindMessages(query.ConversationID)
	if err != nil {
		return nil, internal(s.log, "find messages", err)
	}
	return messages, nil
}

// CreateMessage stores the message, moves the conversation's latest-message
// pointer, then publishes MessageCreated followed by ConversationUpdated.
func (s *MessageService) CreateMessage(ctx context.Context, session *domain.Session,
	cmd domain.CreateMessageCommand) (domain.Message, error) {
	if err := begin(s.publisher, session, cmd); err != nil {
		return domain.Message{}, err
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(cmd.Content) > s.maxContentLength {
		return domain.Message{}, fmt.Errorf("%w: content longer than %d characters",
			errors.ErrInvalidInput, s.maxContentLength)
	}
	if _, err := s.access.ExistsAndAuthorized(cmd.ConversationID, session.UserID); err != nil {
		return domain.Message{}, err
	}

	message, err := s.messages.CreateMessage(cmd.ConversationID, session.UserID, cmd.Content)
	if err != nil {
		return domain.Message{}, internal(s.log, "create message", err)
	}
	conversation, err := s.conversations.UpdateLatestMessageAndSeenFlags(cmd.ConversationID, message.ID, session.UserID)
	if err != nil {
		return domain.Message{}, internal(s.log, "update latest message", err)
	}
	s.publisher.Publish(ctx, session.UserID,
		event.NewMessageCreated(message),
		event.NewConversationUpdated(conversation, nil, nil))
	return message, nil
}
