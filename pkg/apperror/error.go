package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on it without string matching.
type Kind string

const (
	Internal    Kind = "internal"
	Validation  Kind = "validation"
	Persistence Kind = "persistence"
	External    Kind = "external"
	NotFound    Kind = "not_found"
)

// ErrBankSessionExpired is returned when the bank API rejects our credentials.
// The user has to reconnect the bank before syncing again.
var ErrBankSessionExpired = &Error{Kind: External, Message: "bank session expired, reconnect your bank"}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and a user facing message to err. A nil err returns nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Message returns the user facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
