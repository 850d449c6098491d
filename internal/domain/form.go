package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FormField describes one input of a form
type FormField struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"` // text, email, textarea, select, checkbox
	Label    map[string]string `json:"label"`
	Required bool              `json:"required"`
	Options  []string          `json:"options,omitempty"`
}

// Form is a configurable contact/lead form (cms_forms table)
type Form struct {
	Tracker `gorm:"-" json:"-"`

	ID             uint64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Key            string       `gorm:"column:form_key;size:100;uniqueIndex" json:"key"`
	Title          Translations `gorm:"column:title;type:json" json:"title"`
	Description    Translations `gorm:"column:description;type:json" json:"description"`
	SubmitLabel    Translations `gorm:"column:submit_label;type:json" json:"submit_label"`
	SuccessMessage Translations `gorm:"column:success_message;type:json" json:"success_message"`
	Fields         []FormField  `gorm:"column:fields;serializer:json;type:json" json:"fields"`
	Recipients     string       `gorm:"column:recipients;size:500" json:"recipients"`
	IsActive       bool         `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Form) TableName() string {
	return "cms_forms"
}

func (f *Form) Subject() Subject { return Subject{Type: SubjectForm, ID: f.ID} }

func (f *Form) CurrentFields() Snapshot { return FieldsOf(f) }

func (f *Form) ExcludedFields() []string { return excluded() }

func (f *Form) TrackedFields() []string { return nil }

func (f *Form) DirtyFields() Snapshot { return f.Dirty(f.CurrentFields()) }

func (f *Form) TranslatableFields() []string {
	return []string{"title", "description", "submit_label", "success_message"}
}

func (f *Form) CurrentLocale() string { return f.Locale() }

func (f *Form) ApplyField(name string, value any) error { return AssignField(f, name, value) }

func (f *Form) Persist(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Save(f).Error
}

func (f *Form) MarkClean() { f.Remember(f.CurrentFields()) }
