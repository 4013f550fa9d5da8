package domain

import (
	"convo-hub/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Command is implemented by every request type accepted by the services.
// Each operation has its own type, checked once at the boundary.
type Command interface {
	Validate() error
}

type ListConversationsQuery struct{}

type CreateConversationCommand struct {
	ParticipantIDs []string `validate:"required,min=1,dive,required"`
}

type MarkConversationAsReadCommand struct {
	ConversationID string `validate:"required"`
}

type DeleteConversationCommand struct {
	ConversationID string `validate:"required"`
}

type UpdateConversationCommand struct {
	ConversationID string   `validate:"required"`
	ParticipantIDs []string `validate:"required,min=1,dive,required"`
}

type GetMessagesQuery struct {
	ConversationID string `validate:"required"`
}

type CreateMessageCommand struct {
	ConversationID string `validate:"required"`
	Content        string `validate:"required"`
}

type SearchUsersQuery struct {
	Name string `validate:"required"`
}

func (ListConversationsQuery) Validate() error         { return nil }
func (c CreateConversationCommand) Validate() error     { return check(c) }
func (c MarkConversationAsReadCommand) Validate() error { return check(c) }
func (c DeleteConversationCommand) Validate() error     { return check(c) }
func (c UpdateConversationCommand) Validate() error     { return check(c) }
func (q GetMessagesQuery) Validate() error              { return check(q) }
func (c CreateMessageCommand) Validate() error          { return check(c) }
func (q SearchUsersQuery) Validate() error              { return check(q) }

func check(c any) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	return nil
}
