package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/pkg/database"
	"gorm.io/gorm"
)

// RevisionRepository is the append-only cms_revisions store. Every method
// uses the transaction carried by ctx when there is one.
type RevisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository creates a new RevisionRepository
func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Insert appends rev. Missing identity, action, version or data is a
// ValidationError; a duplicate version is a ConflictError.
func (r *RevisionRepository) Insert(ctx context.Context, rev *domain.Revision) error {
	if err := validateRevision(rev); err != nil {
		return err
	}
	if err := database.Conn(ctx, r.db).Create(rev).Error; err != nil {
		if isDuplicateKey(err) {
			return &revision.ConflictError{Subject: rev.Subject(), Version: rev.Version, Err: err}
		}
		return &revision.StorageError{Op: "insert", Err: err}
	}
	return nil
}

// Latest returns the newest revision of subject, or nil when there is none
func (r *RevisionRepository) Latest(ctx context.Context, subject domain.Subject) (*domain.Revision, error) {
	var rev domain.Revision
	err := database.Conn(ctx, r.db).
		Where("subject_type = ? AND subject_id = ?", subject.Type, subject.ID).
		Order("created_at DESC").Order("id DESC").
		Take(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &revision.StorageError{Op: "latest", Err: err}
	}
	return &rev, nil
}

// History lists revisions of subject newest first. limit <= 0 means no limit.
func (r *RevisionRepository) History(ctx context.Context, subject domain.Subject, limit int) ([]*domain.Revision, error) {
	q := database.Conn(ctx, r.db).
		Where("subject_type = ? AND subject_id = ?", subject.Type, subject.ID).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var revs []*domain.Revision
	if err := q.Find(&revs).Error; err != nil {
		return nil, &revision.StorageError{Op: "history", Err: err}
	}
	return revs, nil
}

// Count returns the number of revisions of subject
func (r *RevisionRepository) Count(ctx context.Context, subject domain.Subject) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&domain.Revision{}).
		Where("subject_type = ? AND subject_id = ?", subject.Type, subject.ID).
		Count(&n).Error
	if err != nil {
		return 0, &revision.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// FindByID returns revision id or revision.ErrNotFound
func (r *RevisionRepository) FindByID(ctx context.Context, id uint64) (*domain.Revision, error) {
	var rev domain.Revision
	if err := database.Conn(ctx, r.db).Take(&rev, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, revision.ErrNotFound
		}
		return nil, &revision.StorageError{Op: "find", Err: err}
	}
	return &rev, nil
}

// ListByActor returns the newest revisions recorded by one actor
func (r *RevisionRepository) ListByActor(ctx context.Context, actorID uint64, limit int) ([]*domain.Revision, error) {
	q := database.Conn(ctx, r.db).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var revs []*domain.Revision
	if err := q.Find(&revs).Error; err != nil {
		return nil, &revision.StorageError{Op: "list by actor", Err: err}
	}
	return revs, nil
}

func validateRevision(rev *domain.Revision) error {
	switch {
	case rev == nil:
		return revision.NewValidationError("revision", "is required")
	case rev.SubjectType == "":
		return revision.NewValidationError("subject_type", "is required")
	case rev.SubjectID == 0:
		return revision.NewValidationError("subject_id", "is required")
	case rev.Action == "":
		return revision.NewValidationError("action", "is required")
	case rev.Version == "":
		return revision.NewValidationError("version", "is required")
	case rev.Data == nil:
		return revision.NewValidationError("data", "is required")
	}
	return nil
}

// isDuplicateKey recognizes unique violations from drivers that do not
// implement gorm's error translation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
