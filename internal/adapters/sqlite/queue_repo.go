// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

// QueueRepository implements secondary.QueueRepository with SQLite.
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new SQLite queue repository.
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

const entrySelectCols = "id, order_id, queue_type, factory_id, possible_sequence, process_times, processing_order, queued_at_min, release_after_min, released_at_min, hold_until_min, hold_reason, hold_set_at_min, hold_count, dispatch_seq, created_at, updated_at"

// scanEntry scans a queue_entries row into a QueueEntryRecord.
func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (*secondary.QueueEntryRecord, error) {
	var (
		stage        string
		possibleSeq  sql.NullString
		processTimes sql.NullString
		releasedAt   sql.NullInt64
		holdUntil    sql.NullInt64
		holdReason   sql.NullString
		holdSetAt    sql.NullInt64
		dispatchSeq  sql.NullInt64
		createdAt    sql.NullString
		updatedAt    sql.NullString
	)

	record := &secondary.QueueEntryRecord{}
	err := scanner.Scan(
		&record.ID, &record.OrderID, &stage, &record.FactoryID,
		&possibleSeq, &processTimes, &record.ProcessingOrder,
		&record.QueuedAtMin, &record.ReleaseAfterMin,
		&releasedAt, &holdUntil, &holdReason, &holdSetAt,
		&record.HoldCount, &dispatchSeq, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Stage = queue.Stage(stage)
	record.PossibleSequence = possibleSeq.String
	record.ProcessTimes = processTimes.String
	record.HoldReason = holdReason.String
	record.CreatedAt = createdAt.String
	record.UpdatedAt = updatedAt.String

	if releasedAt.Valid {
		v := releasedAt.Int64
		record.ReleasedAtMin = &v
	}
	if holdUntil.Valid {
		v := holdUntil.Int64
		record.HoldUntilMin = &v
	}
	if holdSetAt.Valid {
		v := holdSetAt.Int64
		record.HoldSetAtMin = &v
	}
	if dispatchSeq.Valid {
		v := dispatchSeq.Int64
		record.DispatchSeq = &v
	}

	return record, nil
}

// nextEntryID generates the next QE-xxxxxx identifier.
func (r *QueueRepository) nextEntryID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 4) AS INTEGER)), 0) FROM queue_entries",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next entry ID: %w", err)
	}
	return fmt.Sprintf("QE-%06d", maxID+1), nil
}

// Insert persists a new pending entry. A racing duplicate enqueue trips the
// partial unique index and is reported as ErrDuplicatePending.
func (r *QueueRepository) Insert(ctx context.Context, entry *secondary.QueueEntryRecord) error {
	if entry.ID == "" {
		id, err := r.nextEntryID(ctx)
		if err != nil {
			return err
		}
		entry.ID = id
	}

	var possibleSeq, processTimes sql.NullString
	if entry.PossibleSequence != "" {
		possibleSeq = sql.NullString{String: entry.PossibleSequence, Valid: true}
	}
	if entry.ProcessTimes != "" {
		processTimes = sql.NullString{String: entry.ProcessTimes, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO queue_entries
			(id, order_id, queue_type, factory_id, possible_sequence, process_times, processing_order, queued_at_min, release_after_min)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OrderID, string(entry.Stage), entry.FactoryID,
		possibleSeq, processTimes, entry.ProcessingOrder, entry.QueuedAtMin, entry.ReleaseAfterMin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return secondary.ErrDuplicatePending
		}
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint error.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint &&
			(serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

// GetPending retrieves the pending entry for an order.
func (r *QueueRepository) GetPending(ctx context.Context, stage queue.Stage, factoryID, orderID string) (*secondary.QueueEntryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+entrySelectCols+" FROM queue_entries WHERE queue_type = ? AND factory_id = ? AND order_id = ? AND released_at_min IS NULL",
		string(stage), factoryID, orderID,
	)

	record, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending entry: %w", err)
	}
	return record, nil
}

// ListPending retrieves all pending entries of a stage in processing order.
func (r *QueueRepository) ListPending(ctx context.Context, stage queue.Stage, factoryID string) ([]*secondary.QueueEntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+entrySelectCols+" FROM queue_entries WHERE queue_type = ? AND factory_id = ? AND released_at_min IS NULL ORDER BY processing_order ASC, queued_at_min ASC",
		string(stage), factoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.QueueEntryRecord
	for rows.Next() {
		record, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

// NextProcessingOrder returns max(processing_order)+1 for the stage.
func (r *QueueRepository) NextProcessingOrder(ctx context.Context, stage queue.Stage, factoryID string) (int64, error) {
	var maxOrder int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(processing_order), 0) FROM queue_entries WHERE queue_type = ? AND factory_id = ?",
		string(stage), factoryID,
	).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max processing order: %w", err)
	}
	return maxOrder + 1, nil
}

// DeleteReleased retires a released entry so the order can be re-enqueued.
func (r *QueueRepository) DeleteReleased(ctx context.Context, stage queue.Stage, factoryID, orderID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM queue_entries WHERE queue_type = ? AND factory_id = ? AND order_id = ? AND released_at_min IS NOT NULL",
		string(stage), factoryID, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete released entry: %w", err)
	}
	return nil
}

// SetHold overwrites the hold fields of a pending entry and bumps its
// cumulative hold count.
func (r *QueueRepository) SetHold(ctx context.Context, stage queue.Stage, factoryID, orderID string, untilMin int64, reason string, nowMin int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE queue_entries
		SET hold_until_min = ?, hold_reason = ?, hold_set_at_min = ?, hold_count = hold_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE queue_type = ? AND factory_id = ? AND order_id = ? AND released_at_min IS NULL`,
		untilMin, reason, nowMin, string(stage), factoryID, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to set hold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set hold: %w", err)
	}
	if n == 0 {
		return secondary.ErrNotFound
	}
	return nil
}

// ClearHold nulls the hold fields of a pending entry. hold_count is kept.
func (r *QueueRepository) ClearHold(ctx context.Context, stage queue.Stage, factoryID, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE queue_entries
		SET hold_until_min = NULL, hold_reason = NULL, hold_set_at_min = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE queue_type = ? AND factory_id = ? AND order_id = ? AND released_at_min IS NULL`,
		string(stage), factoryID, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear hold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to clear hold: %w", err)
	}
	if n == 0 {
		return secondary.ErrNotFound
	}
	return nil
}

// ReleaseBatch marks the given entries released and rewrites dispatch
// sequence numbers in a single transaction. The release minute is only ever
// written onto rows that are still pending, so a released entry can never
// be released again.
func (r *QueueRepository) ReleaseBatch(ctx context.Context, stage queue.Stage, factoryID string, releases []secondary.DispatchAssignment, simMinute int64, pendingSeqs []secondary.DispatchAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range releases {
		res, err := tx.ExecContext(ctx,
			`UPDATE queue_entries
			SET released_at_min = ?, dispatch_seq = ?, updated_at = CURRENT_TIMESTAMP
			WHERE queue_type = ? AND factory_id = ? AND order_id = ? AND released_at_min IS NULL`,
			simMinute, a.DispatchSeq, string(stage), factoryID, a.OrderID,
		)
		if err != nil {
			return fmt.Errorf("failed to release order %s: %w", a.OrderID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to release order %s: %w", a.OrderID, err)
		}
		if n == 0 {
			return fmt.Errorf("order %s is no longer pending: %w", a.OrderID, secondary.ErrNotFound)
		}
	}

	// Renumber entries that stay pending so downstream consumers can
	// recover relative priority without re-running the optimizer.
	for _, a := range pendingSeqs {
		_, err := tx.ExecContext(ctx,
			`UPDATE queue_entries
			SET dispatch_seq = ?, updated_at = CURRENT_TIMESTAMP
			WHERE queue_type = ? AND factory_id = ? AND order_id = ? AND released_at_min IS NULL`,
			a.DispatchSeq, string(stage), factoryID, a.OrderID,
		)
		if err != nil {
			return fmt.Errorf("failed to renumber order %s: %w", a.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

// DeleteAllPending drops every pending entry of a factory.
func (r *QueueRepository) DeleteAllPending(ctx context.Context, factoryID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM queue_entries WHERE factory_id = ? AND released_at_min IS NULL",
		factoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending entries: %w", err)
	}
	return int(n), nil
}
