package decision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageWrapsDriverErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("create", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create")

	assert.ErrorIs(t, Storage("get", context.Canceled), context.Canceled)
	assert.Nil(t, Storage("noop", nil))
}

func TestStoragePassesClassifiedErrorsThrough(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrNotFound)
	assert.Same(t, wrapped, Storage("get", wrapped))
	assert.Equal(t, ErrAlreadySuperseded, Storage("flag", ErrAlreadySuperseded))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "validation", Outcome(Invalid("decision_text", "is required")))
	assert.Equal(t, "not_found", Outcome(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, "already_superseded", Outcome(ErrAlreadySuperseded))
	assert.Equal(t, "unsupported_operation", Outcome(ErrUnsupportedOperation))
	assert.Equal(t, "storage", Outcome(Storage("list", errors.New("boom"))))
}
