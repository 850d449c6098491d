package revision

import (
	"errors"
	"fmt"

	"github.com/damoang/angple-cms/internal/domain"
)

// Sentinels matched by errors.Is against the typed errors below
var (
	ErrValidation = errors.New("revision validation failed")
	ErrStorage    = errors.New("revision storage failed")
	ErrConflict   = errors.New("revision version conflict")
	ErrNotFound   = errors.New("revision not found")
)

// ValidationError is a caller bug: a revision is missing identity, action,
// version or data. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid revision: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a persistence failure. The whole logical operation may
// be retried by the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("revision storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ConflictError reports that another writer already stored Version for
// Subject. Recompute the version and retry.
type ConflictError struct {
	Subject domain.Subject
	Version string
	Err     error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("revision %s already exists for %s", e.Version, e.Subject)
}

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// IsConflict reports whether err is a version conflict
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
