package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/pkg/database"
	"github.com/damoang/angple-cms/pkg/logger"
	"github.com/damoang/angple-cms/pkg/requestcontext"
	"gorm.io/gorm"
)

// columns the API may never write
var protectedFields = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
}

// ContentChange is a set of field edits plus revision options
type ContentChange struct {
	Fields      domain.Snapshot
	Description string
	Metadata    domain.Metadata
}

func (c ContentChange) options() []revision.CreateOption {
	var opts []revision.CreateOption
	if c.Description != "" {
		opts = append(opts, revision.WithDescription(c.Description))
	}
	if len(c.Metadata) > 0 {
		opts = append(opts, revision.WithMetadata(c.Metadata))
	}
	return opts
}

// ContentService writes content entities and records a revision for every
// write in the same transaction.
type ContentService struct {
	db        *gorm.DB
	registry  *revision.Registry
	revisions *revision.Service
}

// NewContentService creates a new ContentService
func NewContentService(db *gorm.DB, registry *revision.Registry, revisions *revision.Service) *ContentService {
	return &ContentService{db: db, registry: registry, revisions: revisions}
}

// Registry exposes the subject types this service can write
func (s *ContentService) Registry() *revision.Registry {
	return s.registry
}

// Get loads one entity
func (s *ContentService) Get(ctx context.Context, subject domain.Subject) (revision.Entity, error) {
	entity, err := s.registry.Load(ctx, s.db, subject)
	if err != nil {
		return nil, err
	}
	s.setLocale(ctx, entity)
	return entity, nil
}

// Create inserts a new entity of type t and records its create revision
func (s *ContentService) Create(ctx context.Context, t domain.SubjectType, change ContentChange) (revision.Entity, *domain.Revision, error) {
	entity, err := s.registry.New(t)
	if err != nil {
		return nil, nil, err
	}
	s.setLocale(ctx, entity)
	if err := assign(entity, change.Fields); err != nil {
		return nil, nil, err
	}

	var rev *domain.Revision
	err = s.revisions.RunInTx(ctx, func(ctx context.Context) error {
		if err := entity.Persist(ctx, database.Conn(ctx, s.db)); err != nil {
			return &revision.StorageError{Op: "create " + string(t), Err: err}
		}
		if revision.AutoRevisionSuppressed(ctx) {
			return nil
		}
		r, err := s.revisions.CreateRevision(ctx, entity, domain.ActionCreate, change.options()...)
		rev = r
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	entity.MarkClean()

	logger.WithSubject(string(t), entity.Subject().ID).Info().Msg("content created")
	return entity, rev, nil
}

// Update applies field edits. A change that touches no versioned field is
// persisted without a revision; a change that touches nothing is a no-op.
func (s *ContentService) Update(ctx context.Context, subject domain.Subject, change ContentChange) (revision.Entity, *domain.Revision, error) {
	var (
		entity revision.Entity
		rev    *domain.Revision
	)
	err := s.revisions.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entity, err = s.registry.Load(ctx, s.db, subject)
		if err != nil {
			return err
		}
		s.setLocale(ctx, entity)
		if err := assign(entity, change.Fields); err != nil {
			return err
		}

		dirty := entity.DirtyFields()
		if len(dirty) == 0 {
			return nil
		}
		if err := entity.Persist(ctx, database.Conn(ctx, s.db)); err != nil {
			return &revision.StorageError{Op: "update " + subject.String(), Err: err}
		}
		if revision.AutoRevisionSuppressed(ctx) {
			return nil
		}
		if len(revision.Filter(dirty, entity.ExcludedFields(), entity.TrackedFields())) == 0 {
			return nil
		}
		rev, err = s.revisions.CreateRevision(ctx, entity, domain.ActionUpdate, change.options()...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	entity.MarkClean()
	return entity, rev, nil
}

// Publish records a published revision of the entity's current state
func (s *ContentService) Publish(ctx context.Context, subject domain.Subject, description string) (revision.Entity, *domain.Revision, error) {
	var (
		entity revision.Entity
		rev    *domain.Revision
	)
	err := s.revisions.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entity, err = s.registry.Load(ctx, s.db, subject)
		if err != nil {
			return err
		}
		s.setLocale(ctx, entity)
		rev, err = s.revisions.CreateManualRevision(ctx, entity, domain.ActionPublish, ContentChange{Description: description}.options()...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return entity, rev, nil
}

// Delete records a delete revision holding the last state, then removes the row
func (s *ContentService) Delete(ctx context.Context, subject domain.Subject) (*domain.Revision, error) {
	var rev *domain.Revision
	err := s.revisions.RunInTx(ctx, func(ctx context.Context) error {
		entity, err := s.registry.Load(ctx, s.db, subject)
		if err != nil {
			return err
		}
		if !revision.AutoRevisionSuppressed(ctx) {
			if rev, err = s.revisions.CreateRevision(ctx, entity, domain.ActionDelete); err != nil {
				return err
			}
		}
		if err := database.Conn(ctx, s.db).Delete(entity).Error; err != nil {
			return &revision.StorageError{Op: "delete " + subject.String(), Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// Revert restores subject to the revision with id revisionID
func (s *ContentService) Revert(ctx context.Context, subject domain.Subject, revisionID uint64) (revision.Entity, error) {
	target, err := s.revisions.FindByID(ctx, revisionID)
	if err != nil {
		return nil, err
	}

	var entity revision.Entity
	err = s.revisions.RunInTx(ctx, func(ctx context.Context) error {
		entity, err = s.registry.Load(ctx, s.db, subject)
		if err != nil {
			return err
		}
		s.setLocale(ctx, entity)
		_, err = s.revisions.RevertToRevision(ctx, entity, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

type localeSetter interface {
	SetLocale(locale string)
}

type passwordSetter interface {
	SetPassword(plain string) error
}

func (s *ContentService) setLocale(ctx context.Context, entity revision.Entity) {
	locale := requestcontext.Locale(ctx)
	if locale == "" {
		return
	}
	if ls, ok := entity.(localeSetter); ok {
		ls.SetLocale(locale)
	}
}

// assign writes API input onto entity. Flat values of translatable fields
// replace only the current locale's entry. Passwords are hashed.
func assign(entity revision.Entity, fields domain.Snapshot) error {
	translatable := make(map[string]struct{})
	for _, f := range entity.TranslatableFields() {
		translatable[f] = struct{}{}
	}
	current := entity.CurrentFields()

	for field, value := range fields {
		if _, ok := protectedFields[field]; ok {
			return revision.NewValidationError(field, "is read-only")
		}
		if ps, ok := entity.(passwordSetter); ok && field == "password" {
			plain, _ := value.(string)
			if plain == "" {
				return revision.NewValidationError(field, "must not be empty")
			}
			if err := ps.SetPassword(plain); err != nil {
				return revision.NewValidationError(field, err.Error())
			}
			continue
		}
		if _, ok := translatable[field]; ok {
			value = mergeLocale(current[field], value, entity.CurrentLocale())
		}
		if err := entity.ApplyField(field, value); err != nil {
			if errors.Is(err, domain.ErrUnknownField) {
				return revision.NewValidationError(field, "unknown field")
			}
			return revision.NewValidationError(field, err.Error())
		}
	}
	return nil
}

func mergeLocale(current, value any, locale string) any {
	switch value.(type) {
	case map[string]any, nil:
		return value
	}
	merged := map[string]any{}
	if existing, ok := current.(map[string]any); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	merged[locale] = fmt.Sprint(value)
	return merged
}
