package resolver

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"bookshelf/internal/service"
)

// Operation names understood by Dispatch.
const (
	OpBooks      = "books"
	OpMe         = "me"
	OpRegister   = "register"
	OpLogin      = "login"
	OpAddBook    = "addBook"
	OpDeleteBook = "deleteBook"
	OpBookAdded  = "bookAdded"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request is a single named operation with its variables.
type Request struct {
	OperationName string              `json:"operationName"`
	Variables     jsoniter.RawMessage `json:"variables,omitempty"`
}

// DecodeRequest parses an operation envelope.
func DecodeRequest(body []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, fmt.Errorf("%w: malformed request body", service.ErrValidation)
	}
	req.OperationName = strings.TrimSpace(req.OperationName)
	if req.OperationName == "" {
		return Request{}, fmt.Errorf("%w: operationName is required", service.ErrValidation)
	}
	return req, nil
}

// BookID accepts an id given either as a JSON number or as a numeric string.
type BookID int64

func (id *BookID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("book id %s is not numeric", data)
	}
	*id = BookID(n)
	return nil
}

// DeleteBookInput is the input of deleteBook.
type DeleteBookInput struct {
	ID BookID `json:"id"`
}

// Dispatch routes req to the resolver method named by its operation.
func (r *Resolver) Dispatch(ctx context.Context, req Request) (any, error) {
	switch req.OperationName {
	case OpBooks:
		return r.Books(ctx)
	case OpMe:
		return r.Me(ctx)
	case OpRegister:
		var in CredentialsInput
		if err := r.decodeVariables(req.OperationName, req.Variables, &in); err != nil {
			return nil, err
		}
		return r.Register(ctx, in)
	case OpLogin:
		var in CredentialsInput
		if err := r.decodeVariables(req.OperationName, req.Variables, &in); err != nil {
			return nil, err
		}
		return r.Login(ctx, in)
	case OpAddBook:
		var in BookInput
		if err := r.decodeGuarded(ctx, req.OperationName, req.Variables, &in); err != nil {
			return nil, err
		}
		return r.AddBook(ctx, in)
	case OpDeleteBook:
		var in DeleteBookInput
		if err := r.decodeGuarded(ctx, req.OperationName, req.Variables, &in); err != nil {
			return nil, err
		}
		return r.DeleteBook(ctx, int64(in.ID))
	case OpBookAdded:
		return nil, ErrSubscriptionTransport
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.OperationName)
	}
}

// decodeVariables reports decode failures to the client without the decoder detail.
func (r *Resolver) decodeVariables(operation string, raw jsoniter.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.WithError(err).WithField("operation", operation).Debug("decode variables")
		return fmt.Errorf("%w: malformed variables", service.ErrValidation)
	}
	return nil
}

// decodeGuarded decodes the variables of a mutating operation. Authorization
// failures take precedence over malformed variables.
func (r *Resolver) decodeGuarded(ctx context.Context, operation string, raw jsoniter.RawMessage, dst any) error {
	err := r.decodeVariables(operation, raw, dst)
	if err == nil {
		return nil
	}
	if _, authErr := r.gate.Authorize(ctx); authErr != nil {
		return authErr
	}
	return err
}
