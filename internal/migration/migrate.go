package migration

import (
	"fmt"

	"github.com/damoang/angple-cms/internal/domain"
	"gorm.io/gorm"
)

// Models returns every table owned by the CMS
func Models() []any {
	return []any{
		&domain.Revision{},
		&domain.Page{},
		&domain.Form{},
		&domain.ContentBlock{},
		&domain.Member{},
		&domain.Testimonial{},
	}
}

// Run executes AutoMigrate for all CMS tables and seeds the system member if empty.
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - create missing tables/indexes, leave existing data alone
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	// 2. Seed - only when cms_members is empty
	var count int64
	if err := db.Model(&domain.Member{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return seedMembers(db)
	}
	return nil
}

func seedMembers(db *gorm.DB) error {
	system := domain.Member{
		Username: "system",
		Email:    "system@localhost",
		Name:     "System",
		Nickname: "System",
		Bio:      domain.Translations{"en": "Automated changes", "ko": "자동 변경"},
		Level:    10,
	}
	return db.Create(&system).Error
}

// requiredIndexes must exist for concurrent revision writes to be safe
var requiredIndexes = []string{
	"uk_revision_subject_version",
	"idx_revision_subject_created",
}

// Verify checks that every table and the revision indexes exist
func Verify(db *gorm.DB) error {
	m := db.Migrator()
	for _, model := range Models() {
		if !m.HasTable(model) {
			return fmt.Errorf("missing table for %T", model)
		}
	}
	for _, idx := range requiredIndexes {
		if !m.HasIndex(&domain.Revision{}, idx) {
			return fmt.Errorf("missing index %s on cms_revisions", idx)
		}
	}
	return nil
}
