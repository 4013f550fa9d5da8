package repositories

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	conversations *ConversationRepository
	messages      *MessageRepository
	users         *UserRepository
	alice         domain.User
	bob           domain.User
	carol         domain.User
}

func newFixture(t *testing.T, limit *int) fixture {
	t.Helper()
	req := require.New(t)
	db := openDB(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := fixture{
		conversations: NewConversationRepository(db, log),
		messages:      NewMessageRepository(db, log, limit),
		users:         NewUserRepository(db),
	}
	var err error
	f.alice, err = f.users.SaveUser(domain.User{Name: "Alice", Email: "alice@example.com"})
	req.NoError(err)
	f.bob, err = f.users.SaveUser(domain.User{Name: "Bob"})
	req.NoError(err)
	f.carol, err = f.users.SaveUser(domain.User{Name: "Carol"})
	req.NoError(err)
	return f
}

func TestConversationRepository_CreateAndFind(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	// When alice creates a conversation with bob, listing alice twice
	conversation, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID, f.alice.ID}, f.alice.ID)
	req.NoError(err)

	// Then participants are unique, populated, and only the creator has seen
	req.Len(conversation.Participants, 2)
	req.Equal([]string{f.alice.ID, f.bob.ID}, conversation.ParticipantIDs())
	req.Equal("Alice", conversation.Participants[0].User.Name)
	req.True(conversation.Participants[0].HasSeenLatestMessage)
	req.False(conversation.Participants[1].HasSeenLatestMessage)
	req.Nil(conversation.LatestMessage)

	found, err := f.conversations.FindConversationForParticipant(conversation.ID, f.bob.ID)
	req.NoError(err)
	req.NotNil(found)
	req.Equal(conversation.ID, found.ID)

	// And an outsider is told nothing
	found, err = f.conversations.FindConversationForParticipant(conversation.ID, f.carol.ID)
	req.NoError(err)
	req.Nil(found)
	found, err = f.conversations.FindConversationForParticipant("missing", f.bob.ID)
	req.NoError(err)
	req.Nil(found)
}

func TestConversationRepository_CreateNeedsTwoDistinctParticipants(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	_, err := f.conversations.CreateConversation([]string{f.alice.ID, f.alice.ID}, f.alice.ID)

	req.ErrorIs(err, errors.ErrNotEnoughParticipants)
}

func TestConversationRepository_FindByParticipantsMatchesExactPair(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	group, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID, f.carol.ID}, f.alice.ID)
	req.NoError(err)
	pair, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)

	found, err := f.conversations.FindConversationByParticipants([]string{f.bob.ID, f.alice.ID})
	req.NoError(err)
	req.NotNil(found)
	req.Equal(pair.ID, found.ID)
	req.NotEqual(group.ID, found.ID)

	found, err = f.conversations.FindConversationByParticipants([]string{f.alice.ID, f.carol.ID})
	req.NoError(err)
	req.Nil(found)

	// Only pairs are looked up
	found, err = f.conversations.FindConversationByParticipants([]string{f.alice.ID, f.bob.ID, f.carol.ID})
	req.NoError(err)
	req.Nil(found)
}

func TestConversationRepository_FindOrCreate(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	first, created, err := f.conversations.FindOrCreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)
	req.True(created)

	// The pair is found whatever the order
	again, created, err := f.conversations.FindOrCreateConversation([]string{f.bob.ID, f.alice.ID}, f.bob.ID)
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, again.ID)

	// Groups are never deduplicated
	for range 2 {
		_, created, err = f.conversations.FindOrCreateConversation([]string{f.alice.ID, f.bob.ID, f.carol.ID}, f.alice.ID)
		req.NoError(err)
		req.True(created)
	}

	_, _, err = f.conversations.FindOrCreateConversation([]string{f.alice.ID, f.alice.ID}, f.alice.ID)
	req.ErrorIs(err, errors.ErrNotEnoughParticipants)
}

func TestConversationRepository_ConcurrentPairCreationYieldsOne(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	const callers = 8
	ids := make([]string, callers)
	var createdCount atomic.Int32
	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			conversation, created, err := f.conversations.FindOrCreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
			if err != nil {
				return err
			}
			if created {
				createdCount.Add(1)
			}
			ids[i] = conversation.ID
			return nil
		})
	}
	req.NoError(g.Wait())

	req.Equal(int32(1), createdCount.Load())
	for _, id := range ids {
		req.Equal(ids[0], id)
	}
	conversations, err := f.conversations.FindConversationsForUser(f.alice.ID)
	req.NoError(err)
	req.Len(conversations, 1)
}

func TestConversationRepository_ListMostRecentlyUpdatedFirst(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	first, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)
	second, err := f.conversations.CreateConversation([]string{f.alice.ID, f.carol.ID}, f.alice.ID)
	req.NoError(err)

	// When a message moves the first conversation up
	message, err := f.messages.CreateMessage(first.ID, f.bob.ID, "hello")
	req.NoError(err)
	_, err = f.conversations.UpdateLatestMessageAndSeenFlags(first.ID, message.ID, f.bob.ID)
	req.NoError(err)

	conversations, err := f.conversations.FindConversationsForUser(f.alice.ID)
	req.NoError(err)
	req.Len(conversations, 2)
	req.Equal(first.ID, conversations[0].ID)
	req.Equal(second.ID, conversations[1].ID)

	conversations, err = f.conversations.FindConversationsForUser(f.carol.ID)
	req.NoError(err)
	req.Len(conversations, 1)
}

func TestConversationRepository_LatestMessageAndSeenFlags(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	conversation, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID, f.carol.ID}, f.alice.ID)
	req.NoError(err)

	message, err := f.messages.CreateMessage(conversation.ID, f.bob.ID, "hi all")
	req.NoError(err)
	updated, err := f.conversations.UpdateLatestMessageAndSeenFlags(conversation.ID, message.ID, f.bob.ID)
	req.NoError(err)

	req.NotNil(updated.LatestMessage)
	req.Equal(message.ID, updated.LatestMessage.ID)
	req.Equal("Bob", updated.LatestMessage.Sender.Name)
	for _, p := range updated.Participants {
		req.Equal(p.UserID() == f.bob.ID, p.HasSeenLatestMessage, p.UserID())
	}

	// When carol reads it
	req.NoError(f.conversations.MarkParticipantSeen(conversation.ID, f.carol.ID))
	found, err := f.conversations.FindConversationForParticipant(conversation.ID, f.carol.ID)
	req.NoError(err)
	for _, p := range found.Participants {
		if p.UserID() == f.carol.ID {
			req.True(p.HasSeenLatestMessage)
		}
	}
	req.ErrorIs(f.conversations.MarkParticipantSeen("missing", f.carol.ID), errors.ErrConversationNotFound)
}

func TestConversationRepository_UpdateParticipants(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	conversation, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)

	updated, err := f.conversations.UpdateConversationParticipants(conversation.ID, []string{f.carol.ID}, []string{f.bob.ID})
	req.NoError(err)

	req.ElementsMatch([]string{f.alice.ID, f.carol.ID}, updated.ParticipantIDs())
	bobs, err := f.conversations.FindConversationsForUser(f.bob.ID)
	req.NoError(err)
	req.Empty(bobs)
	found, err := f.conversations.FindConversationForParticipant(conversation.ID, f.carol.ID)
	req.NoError(err)
	req.NotNil(found)

	_, err = f.conversations.UpdateConversationParticipants("missing", nil, nil)
	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func TestConversationRepository_DeleteRemovesEverything(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	conversation, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)
	_, err = f.messages.CreateMessage(conversation.ID, f.alice.ID, "bye")
	req.NoError(err)

	req.NoError(f.conversations.DeleteConversationAndRelated(conversation.ID))

	for _, userID := range []string{f.alice.ID, f.bob.ID} {
		conversations, err := f.conversations.FindConversationsForUser(userID)
		req.NoError(err)
		req.Empty(conversations)
	}
	messages, err := f.messages.FindMessages(conversation.ID)
	req.NoError(err)
	req.Empty(messages)
	req.ErrorIs(f.conversations.DeleteConversationAndRelated(conversation.ID), errors.ErrConversationNotFound)
}

func TestMessageRepository_OldestFirst(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	conversation, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)

	contents := []string{"one", "two", "three"}
	for _, content := range contents {
		_, err = f.messages.CreateMessage(conversation.ID, f.alice.ID, content)
		req.NoError(err)
	}

	messages, err := f.messages.FindMessages(conversation.ID)
	req.NoError(err)
	req.Len(messages, len(contents))
	for i, m := range messages {
		req.Equal(contents[i], m.Content)
		req.Equal("Alice", m.Sender.Name)
	}
}

func TestMessageRepository_LimitKeepsMostRecent(t *testing.T) {
	req := require.New(t)
	limit := 2
	f := newFixture(t, &limit)
	conversation, err := f.conversations.CreateConversation([]string{f.alice.ID, f.bob.ID}, f.alice.ID)
	req.NoError(err)
	for _, content := range []string{"one", "two", "three"} {
		_, err = f.messages.CreateMessage(conversation.ID, f.bob.ID, content)
		req.NoError(err)
	}

	messages, err := f.messages.FindMessages(conversation.ID)
	req.NoError(err)
	req.Len(messages, limit)
	req.Equal("two", messages[0].Content)
	req.Equal("three", messages[1].Content)
}

func TestMessageRepository_UnknownConversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	_, err := f.messages.CreateMessage("missing", f.alice.ID, "hello")

	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func TestUserRepository_GetAndSearch(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	_, err := f.users.SaveUser(domain.User{Name: "Alicia"})
	req.NoError(err)

	user, err := f.users.GetUser(f.alice.ID)
	req.NoError(err)
	req.Equal(f.alice, user)

	_, err = f.users.GetUser("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)

	// Case-insensitive, the caller left out
	users, err := f.users.SearchUsersByName("ALI", "Alice")
	req.NoError(err)
	req.Len(users, 1)
	req.Equal("Alicia", users[0].Name)
}
