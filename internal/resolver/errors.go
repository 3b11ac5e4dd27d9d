package resolver

import (
	"errors"

	"bookshelf/internal/auth"
	"bookshelf/internal/service"
)

// Code classifies an operation failure for clients.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeDuplicateUsername  Code = "DUPLICATE_USERNAME"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeUnknownOperation   Code = "UNKNOWN_OPERATION"
	CodeInternal           Code = "INTERNAL"
)

const internalMessage = "internal server error"

var (
	// ErrUnknownOperation is returned by Dispatch for an operation name it does not serve.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrSubscriptionTransport is returned when a subscription is dispatched as a request/response operation.
	ErrSubscriptionTransport = errors.New("subscriptions are served over the event stream endpoint")
)

// CodeOf maps err onto the client-facing taxonomy. Anything unrecognised is internal.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrValidation):
		return CodeValidation
	case errors.Is(err, service.ErrDuplicateUsername):
		return CodeDuplicateUsername
	case errors.Is(err, service.ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, auth.ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, auth.ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, ErrUnknownOperation), errors.Is(err, ErrSubscriptionTransport):
		return CodeUnknownOperation
	default:
		return CodeInternal
	}
}

// MessageOf returns the client-facing message for err. Internal details and the
// cause behind token failures are not exposed.
func MessageOf(err error) string {
	switch CodeOf(err) {
	case CodeInternal:
		return internalMessage
	case CodeInvalidToken:
		return auth.ErrInvalidToken.Error()
	case CodeInvalidCredentials:
		return service.ErrInvalidCredentials.Error()
	default:
		return err.Error()
	}
}

// GraphQLError is the wire shape of a failed operation.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NewGraphQLError renders err for the operation at path.
func NewGraphQLError(err error, path ...string) GraphQLError {
	return GraphQLError{
		Message:    MessageOf(err),
		Path:       path,
		Extensions: map[string]any{"code": CodeOf(err)},
	}
}
