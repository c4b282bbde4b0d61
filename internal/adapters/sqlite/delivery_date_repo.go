package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

// DeliveryDateRepository implements secondary.DeliveryDateRepository with SQLite.
type DeliveryDateRepository struct {
	db *sql.DB
}

// NewDeliveryDateRepository creates a new SQLite delivery date repository.
func NewDeliveryDateRepository(db *sql.DB) *DeliveryDateRepository {
	return &DeliveryDateRepository{db: db}
}

const deliverySelectCols = "id, order_id, eta_min, due_at, source_stage, optimizer_name, is_current, created_at"

// scanDelivery scans a delivery_dates row.
func scanDelivery(scanner interface {
	Scan(dest ...any) error
}) (*secondary.DeliveryDateRecord, error) {
	var (
		dueAt     sql.NullTime
		stage     string
		optimizer sql.NullString
		isCurrent int
		createdAt sql.NullString
	)

	record := &secondary.DeliveryDateRecord{}
	err := scanner.Scan(&record.ID, &record.OrderID, &record.EtaMin, &dueAt, &stage, &optimizer, &isCurrent, &createdAt)
	if err != nil {
		return nil, err
	}

	record.SourceStage = queue.Stage(stage)
	record.OptimizerName = optimizer.String
	record.IsCurrent = isCurrent != 0
	record.CreatedAt = createdAt.String
	if dueAt.Valid {
		record.DueAt = dueAt.Time
	}
	return record, nil
}

// nextDeliveryID generates the next DD-xxxxxx identifier.
func (r *DeliveryDateRepository) nextDeliveryID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 4) AS INTEGER)), 0) FROM delivery_dates",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next delivery ID: %w", err)
	}
	return fmt.Sprintf("DD-%06d", maxID+1), nil
}

// SupersedeAndInsert retires the order's current record and inserts rec as
// the new current record, in one transaction.
func (r *DeliveryDateRepository) SupersedeAndInsert(ctx context.Context, rec *secondary.DeliveryDateRecord) error {
	if rec.ID == "" {
		id, err := r.nextDeliveryID(ctx)
		if err != nil {
			return err
		}
		rec.ID = id
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delivery transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE delivery_dates SET is_current = 0 WHERE order_id = ? AND is_current = 1",
		rec.OrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to supersede delivery dates: %w", err)
	}

	var dueAt any
	if !rec.DueAt.IsZero() {
		// format the driver can scan back into a time.Time
		dueAt = rec.DueAt.UTC().Format("2006-01-02 15:04:05")
	}
	var optimizer sql.NullString
	if rec.OptimizerName != "" {
		optimizer = sql.NullString{String: rec.OptimizerName, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO delivery_dates (id, order_id, eta_min, due_at, source_stage, optimizer_name, is_current) VALUES (?, ?, ?, ?, ?, ?, 1)",
		rec.ID, rec.OrderID, rec.EtaMin, dueAt, string(rec.SourceStage), optimizer,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delivery date: %w", err)
	}
	return nil
}

// Current retrieves the current record for an order.
func (r *DeliveryDateRepository) Current(ctx context.Context, orderID string) (*secondary.DeliveryDateRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+deliverySelectCols+" FROM delivery_dates WHERE order_id = ? AND is_current = 1",
		orderID,
	)

	record, err := scanDelivery(row)
	if err == sql.ErrNoRows {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current delivery date: %w", err)
	}
	return record, nil
}

// History retrieves all records for an order, newest first.
func (r *DeliveryDateRepository) History(ctx context.Context, orderID string) ([]*secondary.DeliveryDateRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+deliverySelectCols+" FROM delivery_dates WHERE order_id = ? ORDER BY created_at DESC, id DESC",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery dates: %w", err)
	}
	defer rows.Close()

	var records []*secondary.DeliveryDateRecord
	for rows.Next() {
		record, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery date: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
