package db

// SchemaSQL is the complete schema for fresh refab installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// via GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so any
// drift between repository code and schema fails immediately with
// "no such column".
//
// Keep this in sync with migrations.go when adding columns or tables.
const SchemaSQL = `
-- Stage queues (one row per pending or released work item per stage)
CREATE TABLE IF NOT EXISTS queue_entries (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	queue_type TEXT NOT NULL CHECK(queue_type IN ('pre_acceptance', 'pre_inspection', 'post_inspection')),
	factory_id TEXT NOT NULL,
	possible_sequence TEXT,
	process_times TEXT,
	processing_order INTEGER NOT NULL,
	queued_at_min INTEGER NOT NULL,
	release_after_min INTEGER NOT NULL DEFAULT 0,
	released_at_min INTEGER,
	hold_until_min INTEGER,
	hold_reason TEXT,
	hold_set_at_min INTEGER,
	hold_count INTEGER NOT NULL DEFAULT 0,
	dispatch_seq INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- At most one pending entry per (stage, factory, order). The partial index
-- makes a racing duplicate enqueue fail with a constraint violation, which
-- the repository maps to a skip.
CREATE UNIQUE INDEX IF NOT EXISTS idx_queue_pending_unique
	ON queue_entries(queue_type, factory_id, order_id) WHERE released_at_min IS NULL;

CREATE INDEX IF NOT EXISTS idx_queue_pending_scan
	ON queue_entries(queue_type, factory_id, processing_order) WHERE released_at_min IS NULL;

-- Per-factory stage settings and batch-window markers
CREATE TABLE IF NOT EXISTS stage_configs (
	factory_id TEXT NOT NULL,
	queue_type TEXT NOT NULL CHECK(queue_type IN ('pre_acceptance', 'pre_inspection', 'post_inspection')),
	release_after_min INTEGER NOT NULL DEFAULT 0,
	batch_start_min INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (factory_id, queue_type)
);

-- Downstream delivery-date store: one current record per order
CREATE TABLE IF NOT EXISTS delivery_dates (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	eta_min INTEGER NOT NULL,
	due_at DATETIME,
	source_stage TEXT NOT NULL CHECK(source_stage IN ('pre_acceptance', 'pre_inspection', 'post_inspection')),
	optimizer_name TEXT,
	is_current INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_delivery_current
	ON delivery_dates(order_id) WHERE is_current = 1;

-- Append-only scheduling log consumed by external dashboards
CREATE TABLE IF NOT EXISTS scheduling_log (
	id TEXT PRIMARY KEY,
	factory_id TEXT NOT NULL,
	queue_type TEXT NOT NULL CHECK(queue_type IN ('pre_acceptance', 'pre_inspection', 'post_inspection')),
	mode TEXT NOT NULL CHECK(mode IN ('optimizer_run', 'release_summary')),
	details TEXT,
	actor_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scheduling_log_factory
	ON scheduling_log(factory_id, created_at);
`

// InitSchema applies the schema to a fresh database or runs pending
// migrations on an existing one.
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return err
	}

	// Fresh install: no schema_version table yet
	var name string
	err = database.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&name)
	if err != nil {
		if _, err := database.Exec(SchemaSQL); err != nil {
			return err
		}
		if _, err := database.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`); err != nil {
			return err
		}
		// Mark all migrations as applied for fresh installs
		for _, m := range migrations {
			if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
