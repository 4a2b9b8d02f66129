package core

import "github.com/pkg/errors"

var (
	// ErrConflict is returned by stores when a concurrent write invalidated the snapshot a transaction read.
	// The transaction made no changes and may be retried by the caller.
	ErrConflict = errors.New("concurrent modification, please retry")

	// ErrStoreUnavailable wraps any failure of the underlying store to complete a read or write.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a recoverable rejection of a request. Nothing was changed.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error { return err.Err }

// NotFoundError indicates that the targeted entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (err *NotFoundError) Error() string {
	return err.Entity + " not found"
}

// Is makes every NotFoundError for the same entity match, regardless of the ID.
func (err *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	return ok && t.Entity == err.Entity && (t.ID == "" || t.ID == err.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StoreError marks err as a store failure, keeping its message and cause.
func StoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || IsNotFound(err) {
		return errors.Wrap(err, msg)
	}
	return &storeError{cause: errors.Wrap(err, msg)}
}

type storeError struct {
	cause error
}

func (err *storeError) Error() string        { return err.cause.Error() }
func (err *storeError) Unwrap() error        { return err.cause }
func (err *storeError) Is(target error) bool { return target == ErrStoreUnavailable }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
