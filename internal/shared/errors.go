package shared

import "errors"

// ErrorKind is the machine-readable error classification surfaced to callers.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindNotDraft     ErrorKind = "not_draft"
	KindPeriodLocked ErrorKind = "period_locked"
	KindNotBalanced  ErrorKind = "not_balanced"
	KindConflict     ErrorKind = "conflict"
	KindStorage      ErrorKind = "storage"
)

// Kinder is implemented by errors that carry their own taxonomy kind.
type Kinder interface {
	ErrorKind() ErrorKind
}

// Error is a sentinel-friendly error with an attached kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

// NewError builds a classified error usable as a package sentinel.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

// ErrorKind reports the taxonomy kind.
func (e *Error) ErrorKind() ErrorKind { return e.Kind }

// KindOf resolves the kind for err. Unclassified errors are storage
// failures: they roll back and must not leak detail to callers.
func KindOf(err error) ErrorKind {
	var k Kinder
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindStorage
}
