package db

import (
	"database/sql"
	"fmt"
)

// Migration represents one schema change applied to existing installs.
type Migration struct {
	Version int
	Name    string
	Up      func(db *sql.DB) error
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_scheduling_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_hold_count_to_queue_entries",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_dispatch_seq_to_queue_entries",
		Up:      migrationV3,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations() error {
	database, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	_, err = database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(database); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 creates the initial scheduling tables.
func migrationV1(db *sql.DB) error {
	_, err := db.Exec(SchemaSQL)
	return err
}

// migrationV2 adds the cumulative hold counter to queue entries.
func migrationV2(db *sql.DB) error {
	if columnExists(db, "queue_entries", "hold_count") {
		return nil
	}
	_, err := db.Exec("ALTER TABLE queue_entries ADD COLUMN hold_count INTEGER NOT NULL DEFAULT 0")
	return err
}

// migrationV3 adds the downstream dispatch sequence to queue entries.
func migrationV3(db *sql.DB) error {
	if columnExists(db, "queue_entries", "dispatch_seq") {
		return nil
	}
	_, err := db.Exec("ALTER TABLE queue_entries ADD COLUMN dispatch_seq INTEGER")
	return err
}

// columnExists checks whether a table already has a column.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
