package services

import (
	"context"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/mocks"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
)

type messageFixture struct {
	service       *MessageService
	conversations *mocks.MockIConversationRepository
	messages      *mocks.MockIMessageRepository
	bus           *mocks.MockIEventBus
}

func newMessageFixture(t *testing.T) messageFixture {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	bus := mocks.NewMockIEventBus(ctrl)
	return messageFixture{
		service:       NewMessageService(log, conversations, messages, NewPublisher(log, bus), 20),
		conversations: conversations,
		messages:      messages,
		bus:           bus,
	}
}

func TestMessageService_CreatePublishesMessageThenUpdate(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t)
	conversation := conversationOf("c1", "A", "B")
	message := domain.Message{ID: "m1", ConversationID: "c1", Sender: domain.User{ID: "A", Name: "Alice"},
		Content: "hello", CreatedAt: time.Now()}
	updated := conversation
	updated.LatestMessage = &message

	gomock.InOrder(
		f.conversations.EXPECT().FindConversationForParticipant("c1", "A").Return(&conversation, nil),
		f.messages.EXPECT().CreateMessage("c1", "A", "hello").Return(message, nil),
		f.conversations.EXPECT().UpdateLatestMessageAndSeenFlags("c1", "m1", "A").Return(updated, nil),
		f.bus.EXPECT().PublishOrdered(gomock.Any(),
			event.NewMessageCreated(message),
			event.NewConversationUpdated(updated, nil, nil)).Return(nil),
	)

	got, err := f.service.CreateMessage(context.Background(), alice,
		domain.CreateMessageCommand{ConversationID: "c1", Content: "hello"})

	req.NoError(err)
	req.Equal(message, got)
}

func TestMessageService_CreateRejections(t *testing.T) {
	f := newMessageFixture(t)
	tests := []struct {
		description string
		session     *domain.Session
		cmd         domain.CreateMessageCommand
		code        codes.Code
	}{
		{"Should fail without session", nil, domain.CreateMessageCommand{ConversationID: "c1", Content: "hi"}, codes.Unauthenticated},
		{"Should fail with empty content", alice, domain.CreateMessageCommand{ConversationID: "c1"}, codes.InvalidArgument},
		{"Should fail without conversation", alice, domain.CreateMessageCommand{Content: "hi"}, codes.InvalidArgument},
		{"Should fail when content is too long", alice,
			domain.CreateMessageCommand{ConversationID: "c1", Content: strings.Repeat("é", 21)}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := f.service.CreateMessage(context.Background(), tt.session, tt.cmd)
			require.Equal(t, tt.code, errors.Code(err))
		})
	}
}

func TestMessageService_OutsiderCannotPostOrRead(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t)

	f.conversations.EXPECT().FindConversationForParticipant("c1", "B").Return(nil, nil).Times(2)

	_, err := f.service.CreateMessage(context.Background(), bob,
		domain.CreateMessageCommand{ConversationID: "c1", Content: "hi"})
	req.ErrorIs(err, errors.ErrConversationNotFound)

	_, err = f.service.Messages(bob, domain.GetMessagesQuery{ConversationID: "c1"})
	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func TestMessageService_StoreFailureIsInternal(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t)
	conversation := conversationOf("c1", "A", "B")

	f.conversations.EXPECT().FindConversationForParticipant("c1", "A").Return(&conversation, nil)
	f.messages.EXPECT().FindMessages("c1").Return(nil, stderr("corrupted value log"))

	_, err := f.service.Messages(alice, domain.GetMessagesQuery{ConversationID: "c1"})

	req.Equal(codes.Internal, errors.Code(err))
	req.NotContains(errors.PublicMessage(err), "corrupted")
}
