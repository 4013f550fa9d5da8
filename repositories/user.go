//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/repositories/storage"
	stderrors "errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	SaveUser(user domain.User) (domain.User, error)
	GetUser(id string) (domain.User, error)
	SearchUsersByName(query, excludingName string) ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// SaveUser creates or replaces a user. An empty ID gets a fresh one.
func (u *UserRepository) SaveUser(user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := u.db.Update(func(txn *badger.Txn) error {
		return storage.Set(txn, storage.UserKey(user.ID), storage.FromUser(user))
	})
	return user, err
}

func (u *UserRepository) GetUser(id string) (domain.User, error) {
	var rec storage.UserRecord
	err := u.db.View(func(txn *badger.Txn) error {
		return storage.Get(txn, storage.UserKey(id), &rec)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return storage.ToUser(rec), nil
}

// SearchUsersByName is a case-insensitive substring match on the display
// name. The user named excludingName (the caller) is left out.
func (u *UserRepository) SearchUsersByName(query, excludingName string) ([]domain.User, error) {
	needle := strings.ToLower(query)
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		return storage.ForEach(txn, storage.UserPrefix, false, func(_ []byte, rec storage.UserRecord) bool {
			if rec.Name != excludingName && strings.Contains(strings.ToLower(rec.Name), needle) {
				users = append(users, storage.ToUser(rec))
			}
			return true
		})
	})
	return users, err
}
