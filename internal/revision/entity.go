package revision

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/database"
	"gorm.io/gorm"
)

// Entity is a versioned subject. Implementations are gorm models that can
// expose their columns as a Snapshot and assign them back.
type Entity interface {
	Subject() domain.Subject
	CurrentFields() domain.Snapshot
	ExcludedFields() []string
	// TrackedFields is an optional whitelist; nil tracks every non-excluded field.
	TrackedFields() []string
	DirtyFields() domain.Snapshot
	TranslatableFields() []string
	CurrentLocale() string
	ApplyField(name string, value any) error
	Persist(ctx context.Context, db *gorm.DB) error
	// MarkClean records the current fields as persisted state.
	MarkClean()
}

// ErrSubjectNotFound is returned when a registry load finds no row
var ErrSubjectNotFound = errors.New("subject not found")

// Factory returns a new zero value entity of one subject type
type Factory func() Entity

// Registry maps subject types to entity factories
type Registry struct {
	factories map[domain.SubjectType]Factory
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[domain.SubjectType]Factory)}
}

// DefaultRegistry knows every built-in content type
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.SubjectPage, func() Entity { return &domain.Page{} })
	r.Register(domain.SubjectForm, func() Entity { return &domain.Form{} })
	r.Register(domain.SubjectContentBlock, func() Entity { return &domain.ContentBlock{} })
	r.Register(domain.SubjectMember, func() Entity { return &domain.Member{} })
	r.Register(domain.SubjectTestimonial, func() Entity { return &domain.Testimonial{} })
	return r
}

// Register adds or replaces the factory for t
func (r *Registry) Register(t domain.SubjectType, f Factory) {
	r.factories[t] = f
}

// Types returns the registered subject types, sorted
func (r *Registry) Types() []domain.SubjectType {
	out := make([]domain.SubjectType, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// New returns an empty entity of type t
func (r *Registry) New(t domain.SubjectType) (Entity, error) {
	f, ok := r.factories[t]
	if !ok {
		return nil, NewValidationError("subject_type", fmt.Sprintf("%q is not registered", t))
	}
	return f(), nil
}

// Load reads the subject's row using the transaction in ctx when present
// and marks it clean.
func (r *Registry) Load(ctx context.Context, db *gorm.DB, subject domain.Subject) (Entity, error) {
	if !subject.Valid() {
		return nil, NewValidationError("subject", "type and id are required")
	}
	entity, err := r.New(subject.Type)
	if err != nil {
		return nil, err
	}
	if err := database.Conn(ctx, db).First(entity, subject.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", subject, ErrSubjectNotFound)
		}
		return nil, &StorageError{Op: "load " + subject.String(), Err: err}
	}
	entity.MarkClean()
	return entity, nil
}
