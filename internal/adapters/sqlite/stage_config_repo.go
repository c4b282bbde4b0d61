package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

// StageConfigRepository implements secondary.StageConfigRepository with SQLite.
type StageConfigRepository struct {
	db *sql.DB
}

// NewStageConfigRepository creates a new SQLite stage config repository.
func NewStageConfigRepository(db *sql.DB) *StageConfigRepository {
	return &StageConfigRepository{db: db}
}

// scanConfig scans a stage_configs row.
func scanConfig(scanner interface {
	Scan(dest ...any) error
}) (*secondary.StageConfigRecord, error) {
	var (
		stage      string
		batchStart sql.NullInt64
	)

	record := &secondary.StageConfigRecord{}
	err := scanner.Scan(&record.FactoryID, &stage, &record.ReleaseAfterMin, &batchStart)
	if err != nil {
		return nil, err
	}

	record.Stage = queue.Stage(stage)
	if batchStart.Valid {
		v := batchStart.Int64
		record.BatchStartMin = &v
	}
	return record, nil
}

// Get retrieves the config row for one stage.
func (r *StageConfigRepository) Get(ctx context.Context, factoryID string, stage queue.Stage) (*secondary.StageConfigRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT factory_id, queue_type, release_after_min, batch_start_min FROM stage_configs WHERE factory_id = ? AND queue_type = ?",
		factoryID, string(stage),
	)

	record, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage config: %w", err)
	}
	return record, nil
}

// List retrieves all stage configs of a factory in pipeline order.
func (r *StageConfigRepository) List(ctx context.Context, factoryID string) ([]*secondary.StageConfigRecord, error) {
	var configs []*secondary.StageConfigRecord
	for _, stage := range queue.Stages() {
		cfg, err := r.Get(ctx, factoryID, stage)
		if err == secondary.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Ensure creates default config rows for stages that have none yet.
func (r *StageConfigRepository) Ensure(ctx context.Context, factoryID string) error {
	for _, stage := range queue.Stages() {
		_, err := r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO stage_configs (factory_id, queue_type, release_after_min) VALUES (?, ?, 0)",
			factoryID, string(stage),
		)
		if err != nil {
			return fmt.Errorf("failed to ensure stage config: %w", err)
		}
	}
	return nil
}

// SetReleaseAfter updates the accumulation period for one stage.
func (r *StageConfigRepository) SetReleaseAfter(ctx context.Context, factoryID string, stage queue.Stage, minutes int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stage_configs SET release_after_min = ?, updated_at = CURRENT_TIMESTAMP WHERE factory_id = ? AND queue_type = ?",
		minutes, factoryID, string(stage),
	)
	if err != nil {
		return fmt.Errorf("failed to set release after: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set release after: %w", err)
	}
	if n == 0 {
		return secondary.ErrNotFound
	}
	return nil
}

// OpenWindow sets batch_start_min only when no window is open, so the
// start minute is written at most once per window.
func (r *StageConfigRepository) OpenWindow(ctx context.Context, factoryID string, stage queue.Stage, startMin int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE stage_configs SET batch_start_min = ?, updated_at = CURRENT_TIMESTAMP WHERE factory_id = ? AND queue_type = ? AND batch_start_min IS NULL",
		startMin, factoryID, string(stage),
	)
	if err != nil {
		return fmt.Errorf("failed to open batch window: %w", err)
	}
	return nil
}

// CloseWindow nulls batch_start_min.
func (r *StageConfigRepository) CloseWindow(ctx context.Context, factoryID string, stage queue.Stage) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE stage_configs SET batch_start_min = NULL, updated_at = CURRENT_TIMESTAMP WHERE factory_id = ? AND queue_type = ?",
		factoryID, string(stage),
	)
	if err != nil {
		return fmt.Errorf("failed to close batch window: %w", err)
	}
	return nil
}
