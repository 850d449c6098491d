package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Testimonial is a customer quote shown on marketing pages (cms_testimonials table)
type Testimonial struct {
	Tracker `gorm:"-" json:"-"`

	ID          uint64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AuthorName  string       `gorm:"column:author_name;size:100" json:"author_name"`
	AuthorTitle Translations `gorm:"column:author_title;type:json" json:"author_title"`
	Quote       Translations `gorm:"column:quote;type:json" json:"quote"`
	Rating      int          `gorm:"column:rating;default:5" json:"rating"`
	AvatarURL   string       `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	Position    int          `gorm:"column:position;default:0" json:"position"`
	IsActive    bool         `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Testimonial) TableName() string {
	return "cms_testimonials"
}

func (t *Testimonial) Subject() Subject { return Subject{Type: SubjectTestimonial, ID: t.ID} }

func (t *Testimonial) CurrentFields() Snapshot { return FieldsOf(t) }

func (t *Testimonial) ExcludedFields() []string { return excluded() }

// TrackedFields leaves out ordering and avatar churn; reordering a carousel
// is not a content change.
func (t *Testimonial) TrackedFields() []string {
	return []string{"author_name", "author_title", "quote", "rating", "is_active"}
}

func (t *Testimonial) DirtyFields() Snapshot { return t.Dirty(t.CurrentFields()) }

func (t *Testimonial) TranslatableFields() []string { return []string{"author_title", "quote"} }

func (t *Testimonial) CurrentLocale() string { return t.Locale() }

func (t *Testimonial) ApplyField(name string, value any) error { return AssignField(t, name, value) }

func (t *Testimonial) Persist(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Save(t).Error
}

func (t *Testimonial) MarkClean() { t.Remember(t.CurrentFields()) }
