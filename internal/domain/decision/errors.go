package decision

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("decision not found")
	ErrAlreadySuperseded    = errors.New("decision already superseded")
	ErrValidation           = errors.New("validation failed")
	ErrStorage              = errors.New("storage failure")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a driver or connection failure. It matches ErrStorage and
// unwraps to the underlying cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Storage wraps err as a StorageError unless it is nil or already one of the
// package's own classified errors.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadySuperseded),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrStorage):
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Outcome labels an error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadySuperseded):
		return "already_superseded"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported_operation"
	default:
		return "storage"
	}
}
