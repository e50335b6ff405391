package testsupport

import (
	"context"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-reservation-cache/store/bunstore"
)

// OpenSQLite opens a private in-memory sqlite database with the schema in
// place. It is closed when the test ends.
func OpenSQLite(t testing.TB) *bun.DB {
	t.Helper()

	db, err := bunstore.Open(bunstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := bunstore.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// SeededStore returns a bunstore.Store over a fresh database loaded with
// SeedFixtures.
func SeededStore(t testing.TB, opts ...bunstore.Option) *bunstore.Store {
	t.Helper()

	db := OpenSQLite(t)
	if err := bunstore.Seed(context.Background(), db, SeedFixtures(t)); err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}
	return bunstore.New(db, opts...)
}
