//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/repositories/storage"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	CreateMessage(conversationID, senderID, content string) (domain.Message, error)
	FindMessages(conversationID string) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository keeps at most limitMessages (the most recent ones) in
// FindMessages results; nil means no limit.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// CreateMessage persists a message under "msg:{conversation}:{timestamp}:{id}"
// plus an id index used to point the conversation at its latest message.
func (m *MessageRepository) CreateMessage(conversationID, senderID, content string) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		exists, err := storage.Exists(txn, storage.ConversationKey(conversationID))
		if err != nil {
			return err
		}
		if !exists {
			return errors.ErrConversationNotFound
		}
		rec := storage.MessageRecord{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			SenderID:       senderID,
			Content:        content,
			CreatedAt:      time.Now().UTC().UnixNano(),
		}
		key := storage.MessageKey(conversationID, time.Unix(0, rec.CreatedAt), rec.ID)
		if err = storage.Set(txn, key, rec); err != nil {
			return err
		}
		if err = txn.Set(storage.MessageIDKey(rec.ID), key); err != nil {
			return err
		}
		sender, err := storage.LoadUser(txn, senderID)
		if err != nil {
			return err
		}
		message = storage.ToMessage(rec, sender)
		return nil
	})
	return message, err
}

// FindMessages returns the messages of a conversation, oldest first.
// With a limit, the scan runs backwards from the newest key and stops early.
func (m *MessageRepository) FindMessages(conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var records []storage.MessageRecord
		reverse := m.limitMessages != nil
		err := storage.ForEach(txn, storage.MessagePrefix(conversationID), reverse,
			func(_ []byte, rec storage.MessageRecord) bool {
				if m.limitMessages != nil && len(records) == *m.limitMessages {
					m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
					return false
				}
				records = append(records, rec)
				return true
			})
		if err != nil {
			return err
		}
		if reverse {
			slices.Reverse(records)
		}

		senders := make(map[string]domain.User)
		for _, rec := range records {
			sender, ok := senders[rec.SenderID]
			if !ok {
				if sender, err = storage.LoadUser(txn, rec.SenderID); err != nil {
					return err
				}
				senders[rec.SenderID] = sender
			}
			messages = append(messages, storage.ToMessage(rec, sender))
		}
		return nil
	})
	return messages, err
}
