package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// Page is a CMS page (cms_pages table)
type Page struct {
	Tracker `gorm:"-" json:"-"`

	ID              uint64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ParentID        *uint64      `gorm:"column:parent_id;index" json:"parent_id"`
	Slug            string       `gorm:"column:slug;size:191;uniqueIndex" json:"slug"`
	Template        string       `gorm:"column:template;size:50;default:default" json:"template"`
	Title           Translations `gorm:"column:title;type:json" json:"title"`
	Body            Translations `gorm:"column:body;type:json" json:"body"`
	MetaTitle       Translations `gorm:"column:meta_title;type:json" json:"meta_title"`
	MetaDescription Translations `gorm:"column:meta_description;type:json" json:"meta_description"`
	Status          string       `gorm:"column:status;size:20;default:draft" json:"status"`
	PublishedAt     *time.Time   `gorm:"column:published_at" json:"published_at"`
	CreatedAt       time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Page) TableName() string {
	return "cms_pages"
}

func (p *Page) Subject() Subject { return Subject{Type: SubjectPage, ID: p.ID} }

func (p *Page) CurrentFields() Snapshot { return FieldsOf(p) }

func (p *Page) ExcludedFields() []string { return excluded() }

func (p *Page) TrackedFields() []string { return nil }

func (p *Page) DirtyFields() Snapshot { return p.Dirty(p.CurrentFields()) }

func (p *Page) TranslatableFields() []string {
	return []string{"title", "body", "meta_title", "meta_description"}
}

func (p *Page) CurrentLocale() string { return p.Locale() }

func (p *Page) ApplyField(name string, value any) error { return AssignField(p, name, value) }

func (p *Page) Persist(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Save(p).Error
}

func (p *Page) MarkClean() { p.Remember(p.CurrentFields()) }
