package testing

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/teranos/taxa/db"
	"github.com/teranos/taxa/taxonomy"
	tt "github.com/teranos/taxa/taxonomy/taxonomytest"
)

// TestSourceURL is recorded as the source of cached fixture snapshots
const TestSourceURL = "file:///testdata/new_taxdump.tar.gz"

// CreateTestDB creates a migrated, empty cache in a temp directory and
// returns it with its path. Cleanup is registered with t.Cleanup.
func CreateTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "taxa.db")
	conn, err := db.OpenWithMigrations(path, nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn, path
}

// CreateCachedDB creates a cache holding snap, or the fixture snapshot when
// snap has no records.
func CreateCachedDB(t *testing.T, snap taxonomy.Snapshot) (*sql.DB, string) {
	t.Helper()

	if len(snap.Records) == 0 {
		snap = tt.Snapshot()
	}
	conn, path := CreateTestDB(t)
	if err := db.WriteSnapshot(context.Background(), conn, snap, db.NewMetadata(TestSourceURL)); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}
	return conn, path
}
