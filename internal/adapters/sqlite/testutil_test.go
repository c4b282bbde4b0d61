// Package sqlite_test contains integration tests for SQLite repositories.
//
// All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema. Do not hardcode CREATE TABLE statements here;
// drift between repository code and schema must fail immediately.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/refab/internal/adapters/sqlite"
	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/db"
	"github.com/example/refab/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedEntry enqueues a pending entry directly through the repository.
func seedEntry(t *testing.T, repo *sqlite.QueueRepository, stage queue.Stage, factoryID, orderID string, queuedAt, releaseAfter int64) *secondary.QueueEntryRecord {
	t.Helper()
	ctx := context.Background()

	order, err := repo.NextProcessingOrder(ctx, stage, factoryID)
	if err != nil {
		t.Fatalf("NextProcessingOrder failed: %v", err)
	}

	entry := &secondary.QueueEntryRecord{
		OrderID:         orderID,
		Stage:           stage,
		FactoryID:       factoryID,
		ProcessingOrder: order,
		QueuedAtMin:     queuedAt,
		ReleaseAfterMin: releaseAfter,
	}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return entry
}

// seedConfig ensures default config rows exist for a factory.
func seedConfig(t *testing.T, repo *sqlite.StageConfigRepository, factoryID string) {
	t.Helper()
	if err := repo.Ensure(context.Background(), factoryID); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
}
