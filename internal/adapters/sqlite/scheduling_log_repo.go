package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

// SchedulingLogRepository implements secondary.SchedulingLogRepository with
// SQLite. The table is append-only: there are no update or delete paths.
type SchedulingLogRepository struct {
	db *sql.DB
}

// NewSchedulingLogRepository creates a new SQLite scheduling log repository.
func NewSchedulingLogRepository(db *sql.DB) *SchedulingLogRepository {
	return &SchedulingLogRepository{db: db}
}

// nextLogID generates the next LOG-xxxxxx identifier.
func (r *SchedulingLogRepository) nextLogID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM scheduling_log",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next log ID: %w", err)
	}
	return fmt.Sprintf("LOG-%06d", maxID+1), nil
}

// Append persists a new log entry.
func (r *SchedulingLogRepository) Append(ctx context.Context, rec *secondary.SchedulingLogRecord) error {
	if rec.ID == "" {
		id, err := r.nextLogID(ctx)
		if err != nil {
			return err
		}
		rec.ID = id
	}

	var details, actor sql.NullString
	if rec.Details != "" {
		details = sql.NullString{String: rec.Details, Valid: true}
	}
	if rec.ActorID != "" {
		actor = sql.NullString{String: rec.ActorID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO scheduling_log (id, factory_id, queue_type, mode, details, actor_id) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.FactoryID, string(rec.Stage), rec.Mode, details, actor,
	)
	if err != nil {
		return fmt.Errorf("failed to append scheduling log: %w", err)
	}
	return nil
}

// Tail retrieves the newest entries for a factory, newest first.
func (r *SchedulingLogRepository) Tail(ctx context.Context, factoryID string, limit int) ([]*secondary.SchedulingLogRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, factory_id, queue_type, mode, details, actor_id, created_at FROM scheduling_log WHERE factory_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		factoryID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to tail scheduling log: %w", err)
	}
	defer rows.Close()

	var records []*secondary.SchedulingLogRecord
	for rows.Next() {
		var (
			stage     string
			details   sql.NullString
			actor     sql.NullString
			createdAt sql.NullString
		)
		record := &secondary.SchedulingLogRecord{}
		if err := rows.Scan(&record.ID, &record.FactoryID, &stage, &record.Mode, &details, &actor, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan scheduling log: %w", err)
		}
		record.Stage = queue.Stage(stage)
		record.Details = details.String
		record.ActorID = actor.String
		record.CreatedAt = createdAt.String
		records = append(records, record)
	}
	return records, rows.Err()
}
