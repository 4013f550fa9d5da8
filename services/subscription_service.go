package services

import (
	"context"
	"convo-hub/contract"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/repositories"
	"convo-hub/runtime"
	"convo-hub/subscription"
	"fmt"
	"log/slog"
)

// SubscribeRequest opens one subscription. ConversationID is only used by
// the messageCreated topic.
type SubscribeRequest struct {
	Topic          event.Topic
	ConversationID string
}

type ISubscriptionService interface {
	Subscribe(ctx context.Context, session *domain.Session, connectionID string,
		req SubscribeRequest, sink contract.EventSink) (*subscription.Subscription, error)
	Unsubscribe(handle subscription.Handle)
	Disconnect(connectionID string) int
}

// SubscriptionService opens and closes live subscriptions on behalf of
// client connections. Authorization is decided here, once; the filters
// attached to the subscription then only judge relevance per event.
type SubscriptionService struct {
	log      *slog.Logger
	registry *runtime.Registry
	access   Access
}

func NewSubscriptionService(log *slog.Logger, registry *runtime.Registry,
	conversations repositories.IConversationRepository) *SubscriptionService {
	return &SubscriptionService{
		log:      log,
		registry: registry,
		access:   NewAccess(log, conversations),
	}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, session *domain.Session, connectionID string,
	req SubscribeRequest, sink contract.EventSink) (*subscription.Subscription, error) {
	if !session.Authenticated() {
		return nil, errors.ErrMissingSession
	}
	filter, err := s.filterFor(session, req)
	if err != nil {
		return nil, err
	}
	sub := subscription.New(req.Topic, connectionID, filter, sink)
	if _, err = s.registry.Register(ctx, sub); err != nil {
		return nil, internal(s.log, "register subscription", err)
	}
	s.log.Debug("Subscription opened",
		"subscription_id", sub.ID, "topic", string(req.Topic),
		"user_id", session.UserID, "connection_id", connectionID)
	return sub, nil
}

func (s *SubscriptionService) Unsubscribe(handle subscription.Handle) {
	s.registry.Unregister(handle)
}

// Disconnect releases everything a connection subscribed to.
func (s *SubscriptionService) Disconnect(connectionID string) int {
	return s.registry.UnregisterAll(connectionID)
}

func (s *SubscriptionService) filterFor(session *domain.Session, req SubscribeRequest) (event.Filter, error) {
	switch req.Topic {
	case event.ConversationCreatedTopic:
		return event.ConversationCreatedFilter(session), nil
	case event.ConversationUpdatedTopic:
		return event.ConversationUpdatedFilter(session), nil
	case event.ConversationDeletedTopic:
		return event.ConversationDeletedFilter(session), nil
	case event.MessageCreatedTopic:
		if req.ConversationID == "" {
			return nil, fmt.Errorf("%w: conversationId is required", errors.ErrInvalidInput)
		}
		if _, err := s.access.ExistsAndAuthorized(req.ConversationID, session.UserID); err != nil {
			return nil, err
		}
		return event.MessageCreatedFilter(req.ConversationID), nil
	default:
		return nil, errors.ErrUnknownTopic
	}
}
