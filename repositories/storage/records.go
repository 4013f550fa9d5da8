// Package storage holds the badger key schema and the on-disk records shared
// by the repositories. Every helper works inside a caller-owned transaction.
package storage

import (
	"convo-hub/domain"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key schema:
//
//	user:{userID}                         -> UserRecord
//	conv:{conversationID}                 -> ConversationRecord
//	part:{conversationID}:{userID}        -> ParticipantRecord
//	uconv:{userID}:{conversationID}       -> empty, reverse index
//	msg:{conversationID}:{ts019}:{msgID}  -> MessageRecord, time ordered
//	mid:{msgID}                           -> msg key
//	pair:{userID}:{userID}                -> guard serialising two-party creation
func UserKey(id string) []byte {
	return []byte("user:" + id)
}
func ConversationKey(id string) []byte {
	return []byte("conv:" + id)
}
func ParticipantPrefix(convID string) []byte {
	return []byte("part:" + convID + ":")
}
func ParticipantKey(convID, userID string) []byte {
	return []byte("part:" + convID + ":" + userID)
}
func UserConversationPrefix(userID string) []byte {
	return []byte("uconv:" + userID + ":")
}
func UserConversationKey(userID, convID string) []byte {
	return []byte("uconv:" + userID + ":" + convID)
}
func MessagePrefix(convID string) []byte {
	return []byte("msg:" + convID + ":")
}

// MessageKey pads the timestamp to 19 digits so lexicographical order is
// chronological; the id breaks ties between messages of the same nanosecond.
func MessageKey(convID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", convID, at.UnixNano(), id))
}
func MessageIDKey(id string) []byte {
	return []byte("mid:" + id)
}

// PairKey is the same whatever the order of a and b.
func PairKey(a, b string) []byte {
	if b < a {
		a, b = b, a
	}
	return []byte("pair:" + a + ":" + b)
}

var UserPrefix = []byte("user:")

type UserRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

type ConversationRecord struct {
	ID               string `json:"id"`
	LatestMessageKey string `json:"latest_message_key,omitempty"`
	UpdatedAt        int64  `json:"updated_at"`
}

type ParticipantRecord struct {
	ID                   string `json:"id"`
	ConversationID       string `json:"conversation_id"`
	UserID               string `json:"user_id"`
	HasSeenLatestMessage bool   `json:"has_seen_latest_message"`
	JoinedAt             int64  `json:"joined_at"`
}

type MessageRecord struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
}

// Get decodes the value at key into v. badger.ErrKeyNotFound is returned as is.
func Get(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func Set(txn *badger.Txn, key []byte, v any) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, bytes)
}

func Exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Keys returns a copy of every key starting with prefix, in order.
func Keys(txn *badger.Txn, prefix []byte) [][]byte {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// ForEach decodes every value under prefix into a fresh T and hands it to fn.
func ForEach[T any](txn *badger.Txn, prefix []byte, reverse bool, fn func(key []byte, rec T) bool) error {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	options.Reverse = reverse
	it := txn.NewIterator(options)
	defer it.Close()

	start := prefix
	if reverse {
		// Seek lands on the last key <= seek, so go past every suffix.
		start = append(append([]byte{}, prefix...), 0xFF)
	}
	for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
		var rec T
		item := it.Item()
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		if !fn(item.KeyCopy(nil), rec) {
			return nil
		}
	}
	return nil
}

// LoadUser falls back to a bare identity when the user record is gone.
func LoadUser(txn *badger.Txn, id string) (domain.User, error) {
	var rec UserRecord
	err := Get(txn, UserKey(id), &rec)
	switch {
	case err == nil:
		return ToUser(rec), nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.User{ID: id}, nil
	default:
		return domain.User{}, err
	}
}

func ToUser(rec UserRecord) domain.User {
	return domain.User{ID: rec.ID, Name: rec.Name, Email: rec.Email, Image: rec.Image}
}

func FromUser(u domain.User) UserRecord {
	return UserRecord{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}

func LoadMessage(txn *badger.Txn, key []byte) (domain.Message, error) {
	var rec MessageRecord
	if err := Get(txn, key, &rec); err != nil {
		return domain.Message{}, err
	}
	sender, err := LoadUser(txn, rec.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	return ToMessage(rec, sender), nil
}

func ToMessage(rec MessageRecord, sender domain.User) domain.Message {
	return domain.Message{
		ID:             rec.ID,
		ConversationID: rec.ConversationID,
		Sender:         sender,
		Content:        rec.Content,
		CreatedAt:      time.Unix(0, rec.CreatedAt).UTC(),
	}
}

// LoadParticipants returns the participant records of a conversation in
// joining order.
func LoadParticipants(txn *badger.Txn, convID string) ([]ParticipantRecord, error) {
	var records []ParticipantRecord
	err := ForEach(txn, ParticipantPrefix(convID), false, func(_ []byte, rec ParticipantRecord) bool {
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].JoinedAt == records[j].JoinedAt {
			return records[i].UserID < records[j].UserID
		}
		return records[i].JoinedAt < records[j].JoinedAt
	})
	return records, nil
}

// LoadConversation builds the populated view of a conversation.
// badger.ErrKeyNotFound means the conversation does not exist.
func LoadConversation(txn *badger.Txn, id string) (domain.Conversation, error) {
	var rec ConversationRecord
	if err := Get(txn, ConversationKey(id), &rec); err != nil {
		return domain.Conversation{}, err
	}
	records, err := LoadParticipants(txn, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	conversation := domain.Conversation{
		ID:        rec.ID,
		UpdatedAt: time.Unix(0, rec.UpdatedAt).UTC(),
	}
	for _, p := range records {
		user, err := LoadUser(txn, p.UserID)
		if err != nil {
			return domain.Conversation{}, err
		}
		conversation.Participants = append(conversation.Participants, domain.Participant{
			ID:                   p.ID,
			ConversationID:       p.ConversationID,
			User:                 user,
			HasSeenLatestMessage: p.HasSeenLatestMessage,
		})
	}
	if rec.LatestMessageKey != "" {
		latest, err := LoadMessage(txn, []byte(rec.LatestMessageKey))
		switch {
		case err == nil:
			conversation.LatestMessage = &latest
		case !errors.Is(err, badger.ErrKeyNotFound):
			return domain.Conversation{}, err
		}
	}
	return conversation, nil
}
