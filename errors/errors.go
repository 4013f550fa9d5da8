package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kinds. Every error returned by a service wraps exactly one of them.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
)

var (
	ErrWorkerPanic           = fmt.Errorf("worker panic")
	ErrConversationNotFound  = fmt.Errorf("%w: conversation not found", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrNotEnoughParticipants = fmt.Errorf("%w: a conversation needs at least 2 distinct participants", ErrInvalidInput)
	ErrMissingSession        = fmt.Errorf("%w: no session", ErrUnauthenticated)
	ErrInvalidToken          = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	ErrUnknownUser           = fmt.Errorf("%w: session user does not exist", ErrForbidden)
	ErrUnknownTopic          = fmt.Errorf("%w: unknown topic", ErrInvalidInput)
	ErrBusStopped            = fmt.Errorf("%w: event bus stopped", ErrInternal)
	ErrPublishTimeout        = fmt.Errorf("%w: publish timed out", ErrInternal)
	ErrPendingFanoutFailure  = fmt.Errorf("%w: a previous event could not be delivered", ErrInternal)
)

// Code maps an error to its stable code. Unclassified errors are Internal.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInvalidInput):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// CodeName is the wire form of Code, e.g. NOT_FOUND.
func CodeName(err error) string {
	switch Code(err) {
	case codes.OK:
		return "OK"
	case codes.Unauthenticated:
		return "UNAUTHENTICATED"
	case codes.PermissionDenied:
		return "FORBIDDEN"
	case codes.NotFound:
		return "NOT_FOUND"
	case codes.InvalidArgument:
		return "BAD_USER_INPUT"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// PublicMessage returns the text that may be shown to a client.
// Internal details never leave the process.
func PublicMessage(err error) string {
	if Code(err) == codes.Internal {
		return "internal server error"
	}
	return err.Error()
}

// HTTPStatus maps an error to the status used by the HTTP transport.
func HTTPStatus(err error) int {
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
