package services

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/repositories"
	stderrors "errors"
	"log/slog"
)

type IUserService interface {
	SearchUsers(session *domain.Session, query domain.SearchUsersQuery) ([]domain.User, error)
	ResolveSession(userID string) (*domain.Session, error)
}

type UserService struct {
	log       *slog.Logger
	users     repositories.IUserRepository
	publisher *Publisher
}

func NewUserService(log *slog.Logger, users repositories.IUserRepository, publisher *Publisher) *UserService {
	return &UserService{log: log, users: users, publisher: publisher}
}

// SearchUsers matches display names, leaving the caller out.
func (s *UserService) SearchUsers(session *domain.Session, query domain.SearchUsersQuery) ([]domain.User, error) {
	if err := begin(s.publisher, session, query); err != nil {
		return nil, err
	}
	users, err := s.users.SearchUsersByName(query.Name, session.Name)
	if err != nil {
		return nil, internal(s.log, "search users by name", err)
	}
	return users, nil
}

// ResolveSession turns an authenticated user id into a session. A token for
// a user that no longer exists is forbidden.
func (s *UserService) ResolveSession(userID string) (*domain.Session, error) {
	if userID == "" {
		return nil, errors.ErrMissingSession
	}
	user, err := s.users.GetUser(userID)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		return nil, errors.ErrUnknownUser
	}
	if err != nil {
		return nil, internal(s.log, "get user", err)
	}
	return &domain.Session{UserID: user.ID, Name: user.Name}, nil
}
