package client

import (
	"errors"
	"fmt"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/platform/apierr"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the server. It matches the decision
// package sentinel for its code, so callers can use errors.Is across the wire.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("accord api error (%d %s)", e.Status, e.Code)
	}
	return fmt.Sprintf("accord api error (%d %s): %s", e.Status, e.Code, e.Message)
}

func (e *APIError) HTTPStatusCode() int { return e.Status }

func (e *APIError) Is(target error) bool {
	switch e.Code {
	case apierr.CodeValidation:
		return target == decision.ErrValidation
	case apierr.CodeNotFound:
		return target == decision.ErrNotFound
	case apierr.CodeAlreadySuperseded:
		return target == decision.ErrAlreadySuperseded
	case apierr.CodeUnsupportedOperation:
		return target == decision.ErrUnsupportedOperation
	case apierr.CodeStorageFailure:
		return target == decision.ErrStorage
	case apierr.CodeUnauthorized:
		return target == ErrUnauthorized
	}
	return false
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}
