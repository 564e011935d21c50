package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for translation into an error response.
type ErrorKind string

const (
	// KindValidation marks malformed or missing input.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindStorage marks a persistence capability failure.
	KindStorage ErrorKind = "storage"
	// KindRouting marks an action with no matching prefix, an unregistered
	// agent or an action unknown to the resolved agent.
	KindRouting ErrorKind = "routing"
	// KindUnexpected marks any other fault escaping a handler.
	KindUnexpected ErrorKind = "unexpected"
)

// Sentinel errors usable with errors.Is against any *Error of the same kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
	ErrRouting    = errors.New("routing failure")
	ErrUnexpected = errors.New("unexpected failure")
)

// Error is the categorized error carried across agent boundaries.
type Error struct {
	Kind     ErrorKind
	Op       string // storage operation or routed action
	Message  string
	Field    string // offending field for validation errors
	Resource string // resource type for not found errors
	ID       string // resource id for not found errors
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("%s (field: %s)", e.Message, e.Field)
		}
		return e.Message
	case KindNotFound:
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	case KindStorage:
		if e.Op == "" {
			return e.Message
		}
		if e.Err != nil {
			return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
		}
		return fmt.Sprintf("storage %s failed: %s", e.Op, e.Message)
	default:
		if e.Message == "" && e.Err != nil {
			return e.Err.Error()
		}
		return e.Message
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(kind ErrorKind) error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindStorage:
		return ErrStorage
	case KindRouting:
		return ErrRouting
	default:
		return ErrUnexpected
	}
}

// NewValidationError reports malformed input for field.
func NewValidationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, ID: id}
}

// NewStorageError wraps a persistence failure of op.
func NewStorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// NewRoutingError reports an unroutable action.
func NewRoutingError(action, msg string) *Error {
	return &Error{Kind: KindRouting, Op: action, Message: msg}
}

// KindOf classifies err. Errors outside the taxonomy are unexpected.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrRouting):
		return KindRouting
	}
	return KindUnexpected
}

// ResponseError converts an error response into a categorized error so a
// peer failure can be forwarded without re-wrapping its text. It returns nil
// for success responses.
func ResponseError(resp Response) error {
	if resp.IsSuccess() {
		return nil
	}
	kind := resp.ErrorKind()
	if kind == "" {
		kind = KindUnexpected
	}
	return &Error{Kind: kind, Message: resp.ErrorMessage()}
}
