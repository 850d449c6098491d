// Package testutil provides common helpers for repository and service tests.
package testutil

import (
	"testing"

	"github.com/damoang/angple-cms/internal/migration"
	"github.com/damoang/angple-cms/pkg/database"
	"gorm.io/gorm"
)

// NewDB opens an in-memory sqlite database with every CMS table migrated.
// The pool is pinned to one connection so all queries see the same database.
func NewDB(t *testing.T, extra ...any) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(append(migration.Models(), extra...)...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
