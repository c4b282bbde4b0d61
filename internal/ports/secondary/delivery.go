package secondary

import (
	"context"
	"time"

	"github.com/example/refab/internal/core/queue"
)

// DeliveryDateRepository defines the secondary port for the downstream
// delivery-date store. An order has at most one current record; each ETA
// propagation supersedes the previous current record and inserts a new one.
type DeliveryDateRepository interface {
	// SupersedeAndInsert marks every current record of the order
	// not-current and inserts rec as the new current record, in one
	// atomic step.
	SupersedeAndInsert(ctx context.Context, rec *DeliveryDateRecord) error

	// Current retrieves the current record for an order, or ErrNotFound.
	Current(ctx context.Context, orderID string) (*DeliveryDateRecord, error)

	// History retrieves all records for an order, newest first.
	History(ctx context.Context, orderID string) ([]*DeliveryDateRecord, error)
}

// DeliveryDateRecord represents one delivery-date estimate.
type DeliveryDateRecord struct {
	ID            string
	OrderID       string
	EtaMin        int64 // sim-minutes from the originating run's now
	DueAt         time.Time // optional wall-clock mapping; zero when no epoch is configured
	SourceStage   queue.Stage
	OptimizerName string
	IsCurrent     bool
	CreatedAt     string
}
