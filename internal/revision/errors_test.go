package revision

import (
	"errors"
	"fmt"
	"testing"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	cause := errors.New("disk full")

	storage := fmt.Errorf("create: %w", &StorageError{Op: "insert", Err: cause})
	assert.ErrorIs(t, storage, ErrStorage)
	assert.ErrorIs(t, storage, cause)
	assert.NotErrorIs(t, storage, ErrValidation)

	validation := NewValidationError("subject_type", "is required")
	assert.ErrorIs(t, validation, ErrValidation)
	assert.Equal(t, "invalid revision: subject_type is required", validation.Error())

	conflict := &ConflictError{Subject: domain.Subject{Type: domain.SubjectPage, ID: 7}, Version: "1.0.2", Err: cause}
	assert.ErrorIs(t, conflict, ErrConflict)
	assert.True(t, IsConflict(fmt.Errorf("wrapped: %w", conflict)))
	assert.False(t, IsConflict(storage))
	assert.Contains(t, conflict.Error(), "page:7")
}
