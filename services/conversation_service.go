package services

import (
	"context"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/repositories"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

type IConversationService interface {
	Conversations(session *domain.Session, query domain.ListConversationsQuery) ([]domain.Conversation, error)
	CreateConversation(ctx context.Context, session *domain.Session, cmd domain.CreateConversationCommand) (CreateConversationResult, error)
	MarkConversationAsRead(ctx context.Context, session *domain.Session, cmd domain.MarkConversationAsReadCommand) error
	DeleteConversation(ctx context.Context, session *domain.Session, cmd domain.DeleteConversationCommand) error
	UpdateConversation(ctx context.Context, session *domain.Session, cmd domain.UpdateConversationCommand) (domain.Conversation, error)
}

type CreateConversationResult struct {
	ConversationID string
	IsCreated      bool
}

type ConversationService struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
	access        Access
	publisher     *Publisher
}

func NewConversationService(log *slog.Logger, conversations repositories.IConversationRepository,
	publisher *Publisher) *ConversationService {
	return &ConversationService{
		log:           log,
		conversations: conversations,
		access:        NewAccess(log, conversations),
		publisher:     publisher,
	}
}

func (s *ConversationService) Conversations(session *domain.Session, query domain.ListConversationsQuery) ([]domain.Conversation, error) {
	if err := begin(s.publisher, session, query); err != nil {
		return nil, err
	}
	conversations, err := s.conversations.FindConversationsForUser(session.UserID)
	if err != nil {
		return nil, internal(s.log, "find conversations for user", err)
	}
	return conversations, nil
}

// CreateConversation always includes the caller. Two-party conversations are
// unique: asking again returns the existing one and publishes nothing.
func (s *ConversationService) CreateConversation(ctx context.Context, session *domain.Session,
	cmd domain.CreateConversationCommand) (CreateConversationResult, error) {
	if err := begin(s.publisher, session, cmd); err != nil {
		return CreateConversationResult{}, err
	}
	ids := lo.Uniq(append(slices.Clone(cmd.ParticipantIDs), session.UserID))
	if len(ids) < domain.MinParticipants {
		return CreateConversationResult{}, errors.ErrNotEnoughParticipants
	}

	// A pair of users shares one conversation; lookup and creation happen in
	// the same transaction so concurrent requests cannot both create it.
	conversation, created, err := s.conversations.FindOrCreateConversation(ids, session.UserID)
	if err != nil {
		return CreateConversationResult{}, internal(s.log, "create conversation", err)
	}
	if !created {
		return CreateConversationResult{ConversationID: conversation.ID, IsCreated: false}, nil
	}
	s.publisher.Publish(ctx, session.UserID, event.NewConversationCreated(conversation))
	return CreateConversationResult{ConversationID: conversation.ID, IsCreated: true}, nil
}

func (s *ConversationService) MarkConversationAsRead(_ context.Context, session *domain.Session,
	cmd domain.MarkConversationAsReadCommand) error {
	if err := begin(s.publisher, session, cmd); err != nil {
		return err
	}
	if _, err := s.access.ExistsAndAuthorized(cmd.ConversationID, session.UserID); err != nil {
		return err
	}
	if err := s.conversations.MarkParticipantSeen(cmd.ConversationID, session.UserID); err != nil {
		return internal(s.log, "mark participant seen", err)
	}
	return nil
}

// DeleteConversation snapshots the conversation, deletes it and only then
// publishes: no event ever describes a deletion that did not commit.
func (s *ConversationService) DeleteConversation(ctx context.Context, session *domain.Session,
	cmd domain.DeleteConversationCommand) error {
	if err := begin(s.publisher, session, cmd); err != nil {
		return err
	}
	snapshot, err := s.access.ExistsAndAuthorized(cmd.ConversationID, session.UserID)
	if err != nil {
		return err
	}
	if err = s.conversations.DeleteConversationAndRelated(cmd.ConversationID); err != nil {
		return internal(s.log, "delete conversation", err)
	}
	s.publisher.Publish(ctx, session.UserID, event.NewConversationDeleted(snapshot))
	return nil
}

// UpdateConversation replaces the participant set. The deltas are computed
// against the set read before the change and travel with the new snapshot.
func (s *ConversationService) UpdateConversation(ctx context.Context, session *domain.Session,
	cmd domain.UpdateConversationCommand) (domain.Conversation, error) {
	if err := begin(s.publisher, session, cmd); err != nil {
		return domain.Conversation{}, err
	}
	current, err := s.access.ExistsAndAuthorized(cmd.ConversationID, session.UserID)
	if err != nil {
		return domain.Conversation{}, err
	}
	requested := lo.Uniq(cmd.ParticipantIDs)
	if len(requested) < domain.MinParticipants {
		return domain.Conversation{}, errors.ErrNotEnoughParticipants
	}

	toAdd, toRemove := domain.ParticipantDelta(current.ParticipantIDs(), requested)
	updated, err := s.conversations.UpdateConversationParticipants(cmd.ConversationID, toAdd, toRemove)
	if err != nil {
		return domain.Conversation{}, internal(s.log, "update conversation participants", err)
	}
	s.publisher.Publish(ctx, session.UserID, event.NewConversationUpdated(updated, toAdd, toRemove))
	return updated, nil
}
