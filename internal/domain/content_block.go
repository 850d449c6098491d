package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ContentBlock is a reusable section placed on pages (cms_content_blocks table)
type ContentBlock struct {
	Tracker `gorm:"-" json:"-"`

	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PageID    *uint64        `gorm:"column:page_id;index" json:"page_id"`
	Key       string         `gorm:"column:block_key;size:100;index" json:"key"`
	Type      string         `gorm:"column:type;size:50" json:"type"` // hero, rich_text, gallery, cta
	Heading   Translations   `gorm:"column:heading;type:json" json:"heading"`
	Content   Translations   `gorm:"column:content;type:json" json:"content"`
	Settings  map[string]any `gorm:"column:settings;serializer:json;type:json" json:"settings"`
	Position  int            `gorm:"column:position;default:0" json:"position"`
	Status    string         `gorm:"column:status;size:20;default:draft" json:"status"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ContentBlock) TableName() string {
	return "cms_content_blocks"
}

func (b *ContentBlock) Subject() Subject { return Subject{Type: SubjectContentBlock, ID: b.ID} }

func (b *ContentBlock) CurrentFields() Snapshot { return FieldsOf(b) }

func (b *ContentBlock) ExcludedFields() []string { return excluded() }

func (b *ContentBlock) TrackedFields() []string { return nil }

func (b *ContentBlock) DirtyFields() Snapshot { return b.Dirty(b.CurrentFields()) }

func (b *ContentBlock) TranslatableFields() []string { return []string{"heading", "content"} }

func (b *ContentBlock) CurrentLocale() string { return b.Locale() }

func (b *ContentBlock) ApplyField(name string, value any) error { return AssignField(b, name, value) }

func (b *ContentBlock) Persist(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Save(b).Error
}

func (b *ContentBlock) MarkClean() { b.Remember(b.CurrentFields()) }
