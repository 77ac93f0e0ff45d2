// Package storagetest opens throwaway databases for tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/MrEthical07/authcore/storage"
)

// OpenSQLite returns a migrated in-memory SQLite database that is closed when
// the test ends.
func OpenSQLite(t testing.TB) *storage.DB {
	t.Helper()

	db, err := storage.Open(context.Background(), storage.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
