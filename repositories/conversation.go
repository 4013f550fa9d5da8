//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/repositories/storage"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IConversationRepository interface {
	FindConversationsForUser(userID string) ([]domain.Conversation, error)
	FindConversationByParticipants(userIDs []string) (*domain.Conversation, error)
	CreateConversation(participantIDs []string, creatorID string) (domain.Conversation, error)
	FindOrCreateConversation(participantIDs []string, creatorID string) (domain.Conversation, bool, error)
	FindConversationForParticipant(conversationID, userID string) (*domain.Conversation, error)
	DeleteConversationAndRelated(conversationID string) error
	UpdateConversationParticipants(conversationID string, toAdd, toRemove []string) (domain.Conversation, error)
	MarkParticipantSeen(conversationID, userID string) error
	UpdateLatestMessageAndSeenFlags(conversationID, messageID, senderID string) (domain.Conversation, error)
}

// maxConflictRetries bounds the retries of a transaction aborted by badger's
// conflict detection.
const maxConflictRetries = 3

type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

// FindConversationsForUser walks the user's reverse index and returns the
// conversations most recently updated first.
func (r *ConversationRepository) FindConversationsForUser(userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := storage.UserConversationPrefix(userID)
		for _, key := range storage.Keys(txn, prefix) {
			conversation, err := storage.LoadConversation(txn, string(key[len(prefix):]))
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// FindConversationByParticipants returns the conversation whose participant
// set is exactly userIDs. Only meaningful for two users; nil otherwise.
func (r *ConversationRepository) FindConversationByParticipants(userIDs []string) (*domain.Conversation, error) {
	wanted := lo.Uniq(userIDs)
	if len(wanted) != domain.MinParticipants {
		return nil, nil
	}
	var found *domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = findByParticipants(txn, wanted)
		return err
	})
	return found, err
}

// CreateConversation stores the conversation and all its participants in one
// transaction. Only the creator starts with the latest message seen.
func (r *ConversationRepository) CreateConversation(participantIDs []string, creatorID string) (domain.Conversation, error) {
	ids := lo.Uniq(participantIDs)
	if len(ids) < domain.MinParticipants {
		return domain.Conversation{}, errors.ErrNotEnoughParticipants
	}
	var conversation domain.Conversation
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		conversation, err = create(txn, ids, creatorID)
		return err
	})
	return conversation, err
}

// FindOrCreateConversation returns the existing conversation of a pair of
// users, or creates it, in a single transaction. Groups are always created.
// Concurrent calls for the same pair conflict on the pair guard: the loser
// retries and finds the conversation the winner committed.
func (r *ConversationRepository) FindOrCreateConversation(participantIDs []string, creatorID string) (domain.Conversation, bool, error) {
	ids := lo.Uniq(participantIDs)
	if len(ids) < domain.MinParticipants {
		return domain.Conversation{}, false, errors.ErrNotEnoughParticipants
	}
	for attempt := 0; ; attempt++ {
		conversation, created, err := r.findOrCreate(ids, creatorID)
		if stderrors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			r.log.Debug("Conversation creation conflicted, retrying", "attempt", attempt+1)
			continue
		}
		return conversation, created, err
	}
}

func (r *ConversationRepository) findOrCreate(ids []string, creatorID string) (domain.Conversation, bool, error) {
	var conversation domain.Conversation
	created := false
	err := r.db.Update(func(txn *badger.Txn) error {
		if len(ids) == domain.MinParticipants {
			guard := storage.PairKey(ids[0], ids[1])
			// Read even when missing: badger then detects a concurrent write.
			if _, err := storage.Exists(txn, guard); err != nil {
				return err
			}
			found, err := findByParticipants(txn, ids)
			if err != nil {
				return err
			}
			if found != nil {
				conversation = *found
				return nil
			}
			if err = txn.Set(guard, nil); err != nil {
				return err
			}
		}
		var err error
		conversation, err = create(txn, ids, creatorID)
		created = err == nil
		return err
	})
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return conversation, created, nil
}

func findByParticipants(txn *badger.Txn, wanted []string) (*domain.Conversation, error) {
	prefix := storage.UserConversationPrefix(wanted[0])
	for _, key := range storage.Keys(txn, prefix) {
		convID := string(key[len(prefix):])
		records, err := storage.LoadParticipants(txn, convID)
		if err != nil {
			return nil, err
		}
		ids := lo.Map(records, func(p storage.ParticipantRecord, _ int) string { return p.UserID })
		if !sameMembers(ids, wanted) {
			continue
		}
		conversation, err := storage.LoadConversation(txn, convID)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &conversation, nil
	}
	return nil, nil
}

func create(txn *badger.Txn, ids []string, creatorID string) (domain.Conversation, error) {
	now := time.Now().UTC()
	convID := uuid.NewString()
	if err := storage.Set(txn, storage.ConversationKey(convID), storage.ConversationRecord{
		ID:        convID,
		UpdatedAt: now.UnixNano(),
	}); err != nil {
		return domain.Conversation{}, err
	}
	for i, userID := range ids {
		if err := addParticipant(txn, convID, userID, userID == creatorID, now.UnixNano()+int64(i)); err != nil {
			return domain.Conversation{}, err
		}
	}
	return storage.LoadConversation(txn, convID)
}

// FindConversationForParticipant returns nil when the conversation does not
// exist or when userID is not one of its participants.
func (r *ConversationRepository) FindConversationForParticipant(conversationID, userID string) (*domain.Conversation, error) {
	var found *domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		member, err := storage.Exists(txn, storage.ParticipantKey(conversationID, userID))
		if err != nil || !member {
			return err
		}
		conversation, err := storage.LoadConversation(txn, conversationID)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = &conversation
		return nil
	})
	return found, err
}

// DeleteConversationAndRelated removes the conversation, its participants and
// its messages atomically.
func (r *ConversationRepository) DeleteConversationAndRelated(conversationID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		exists, err := storage.Exists(txn, storage.ConversationKey(conversationID))
		if err != nil {
			return err
		}
		if !exists {
			return errors.ErrConversationNotFound
		}
		participants, err := storage.LoadParticipants(txn, conversationID)
		if err != nil {
			return err
		}
		var keys [][]byte
		for _, p := range participants {
			keys = append(keys,
				storage.ParticipantKey(conversationID, p.UserID),
				storage.UserConversationKey(p.UserID, conversationID))
		}
		err = storage.ForEach(txn, storage.MessagePrefix(conversationID), false,
			func(key []byte, rec storage.MessageRecord) bool {
				keys = append(keys, key, storage.MessageIDKey(rec.ID))
				return true
			})
		if err != nil {
			return err
		}
		keys = append(keys, storage.ConversationKey(conversationID))
		for _, key := range keys {
			if err = txn.Delete(key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		r.log.Debug("Conversation deleted", "conversation_id", conversationID, "keys", len(keys))
		return nil
	})
}

// UpdateConversationParticipants applies both deltas in one transaction and
// returns the resulting conversation.
func (r *ConversationRepository) UpdateConversationParticipants(conversationID string, toAdd, toRemove []string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.Update(func(txn *badger.Txn) error {
		var rec storage.ConversationRecord
		if err := storage.Get(txn, storage.ConversationKey(conversationID), &rec); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrConversationNotFound
			}
			return err
		}
		for _, userID := range toRemove {
			if err := txn.Delete(storage.ParticipantKey(conversationID, userID)); err != nil {
				return err
			}
			if err := txn.Delete(storage.UserConversationKey(userID, conversationID)); err != nil {
				return err
			}
		}
		now := time.Now().UTC().UnixNano()
		for i, userID := range toAdd {
			exists, err := storage.Exists(txn, storage.ParticipantKey(conversationID, userID))
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err = addParticipant(txn, conversationID, userID, false, now+int64(i)); err != nil {
				return err
			}
		}
		rec.UpdatedAt = now
		if err := storage.Set(txn, storage.ConversationKey(conversationID), rec); err != nil {
			return err
		}
		var err error
		conversation, err = storage.LoadConversation(txn, conversationID)
		return err
	})
	return conversation, err
}

func (r *ConversationRepository) MarkParticipantSeen(conversationID, userID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := storage.ParticipantKey(conversationID, userID)
		var rec storage.ParticipantRecord
		if err := storage.Get(txn, key, &rec); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrConversationNotFound
			}
			return err
		}
		if rec.HasSeenLatestMessage {
			return nil
		}
		rec.HasSeenLatestMessage = true
		return storage.Set(txn, key, rec)
	})
}

// UpdateLatestMessageAndSeenFlags points the conversation at messageID, marks
// it seen for the sender and unseen for everybody else.
func (r *ConversationRepository) UpdateLatestMessageAndSeenFlags(conversationID, messageID, senderID string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.Update(func(txn *badger.Txn) error {
		var rec storage.ConversationRecord
		if err := storage.Get(txn, storage.ConversationKey(conversationID), &rec); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrConversationNotFound
			}
			return err
		}
		item, err := txn.Get(storage.MessageIDKey(messageID))
		if err != nil {
			return fmt.Errorf("latest message %s: %w", messageID, err)
		}
		messageKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec.LatestMessageKey = string(messageKey)
		rec.UpdatedAt = time.Now().UTC().UnixNano()
		if err = storage.Set(txn, storage.ConversationKey(conversationID), rec); err != nil {
			return err
		}

		participants, err := storage.LoadParticipants(txn, conversationID)
		if err != nil {
			return err
		}
		for _, p := range participants {
			seen := p.UserID == senderID
			if p.HasSeenLatestMessage == seen {
				continue
			}
			p.HasSeenLatestMessage = seen
			if err = storage.Set(txn, storage.ParticipantKey(conversationID, p.UserID), p); err != nil {
				return err
			}
		}
		conversation, err = storage.LoadConversation(txn, conversationID)
		return err
	})
	return conversation, err
}

func addParticipant(txn *badger.Txn, convID, userID string, seen bool, joinedAt int64) error {
	if err := storage.Set(txn, storage.ParticipantKey(convID, userID), storage.ParticipantRecord{
		ID:                   uuid.NewString(),
		ConversationID:       convID,
		UserID:               userID,
		HasSeenLatestMessage: seen,
		JoinedAt:             joinedAt,
	}); err != nil {
		return err
	}
	return txn.Set(storage.UserConversationKey(userID, convID), []byte{})
}

// sameMembers reports whether a and b hold the same ids, ignoring order.
func sameMembers(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(lo.Uniq(a), lo.Uniq(b))
}
