// Package testdb opens migrated SQLite databases private to a single test.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

// New returns a migrated WAL-mode database file under the test's temp dir.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	db, _ := open(t)
	return db
}

// NewWithSnapshots also opens the read-only pool that WithSnapshot uses in production.
func NewWithSnapshots(t testing.TB) (*sqlx.DB, *sqlx.DB) {
	t.Helper()
	db, cfg := open(t)
	snapshots, err := database.NewSnapshotDB(cfg)
	if err != nil {
		t.Fatalf("open snapshot pool: %v", err)
	}
	t.Cleanup(func() { snapshots.Close() })
	return db, snapshots
}

func open(t testing.TB) (*sqlx.DB, *database.Config) {
	cfg := &database.Config{
		Driver: database.DriverSQLite,
		DSN:    "file:" + filepath.Join(t.TempDir(), "pos.db"),
	}
	db, err := database.NewDB(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db, cfg
}
