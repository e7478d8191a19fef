package apierr

import "fmt"

// Machine-readable codes carried in the error envelope.
const (
	CodeValidation           = "validation_error"
	CodeNotFound             = "not_found"
	CodeAlreadySuperseded    = "already_superseded"
	CodeUnsupportedOperation = "unsupported_operation"
	CodeUnauthorized         = "unauthorized"
	CodeStorageFailure       = "storage_failure"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
