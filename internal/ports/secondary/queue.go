// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems: persistence, the optimizer, and the observability
// side channel.
package secondary

import (
	"context"
	"errors"

	"github.com/example/refab/internal/core/queue"
)

// ErrNotFound is returned when a referenced entry, order or config row
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicatePending is returned by Insert when a pending entry for the
// same (stage, factory, order) already exists. Adapters must map their
// native unique-constraint violation to this sentinel so concurrent
// enqueues resolve to a skip, never a duplicate.
var ErrDuplicatePending = errors.New("pending entry already exists")

// QueueRepository defines the secondary port for queue-entry persistence.
type QueueRepository interface {
	// Insert persists a new pending entry. Returns ErrDuplicatePending
	// if a pending entry for the same (stage, factory, order) exists.
	Insert(ctx context.Context, entry *QueueEntryRecord) error

	// GetPending retrieves the pending entry for an order, or ErrNotFound.
	GetPending(ctx context.Context, stage queue.Stage, factoryID, orderID string) (*QueueEntryRecord, error)

	// ListPending retrieves all pending entries for a stage, ordered by
	// (processing_order asc, queued_at_min asc).
	ListPending(ctx context.Context, stage queue.Stage, factoryID string) ([]*QueueEntryRecord, error)

	// NextProcessingOrder returns max(processing_order)+1 across all
	// entries (pending and released) of the stage.
	NextProcessingOrder(ctx context.Context, stage queue.Stage, factoryID string) (int64, error)

	// DeleteReleased removes a previously released entry for an order so a
	// fresh pending entry can take its place. No-op if none exists.
	DeleteReleased(ctx context.Context, stage queue.Stage, factoryID, orderID string) error

	// SetHold overwrites the hold fields of the pending entry for an order
	// and increments its hold count. Returns ErrNotFound if no pending
	// entry exists.
	SetHold(ctx context.Context, stage queue.Stage, factoryID, orderID string, untilMin int64, reason string, nowMin int64) error

	// ClearHold nulls the hold fields of the pending entry for an order.
	// The hold count is preserved. Returns ErrNotFound if no pending
	// entry exists.
	ClearHold(ctx context.Context, stage queue.Stage, factoryID, orderID string) error

	// ReleaseBatch marks the given entries released at simMinute and
	// rewrites dispatch sequence numbers, atomically: either every release
	// timestamp and dispatch assignment lands, or none do. Entries already
	// released are not touched (the release minute is immutable).
	ReleaseBatch(ctx context.Context, stage queue.Stage, factoryID string, releases []DispatchAssignment, simMinute int64, pendingSeqs []DispatchAssignment) error

	// DeleteAllPending drops every pending entry for a factory across all
	// stages and returns the number removed. Released history is kept.
	DeleteAllPending(ctx context.Context, factoryID string) (int, error)
}

// QueueEntryRecord represents a queue entry as stored in persistence.
type QueueEntryRecord struct {
	ID               string
	OrderID          string
	Stage            queue.Stage
	FactoryID        string
	PossibleSequence string // opaque JSON payload forwarded to the optimizer
	ProcessTimes     string // opaque JSON payload forwarded to the optimizer
	ProcessingOrder  int64
	QueuedAtMin      int64
	ReleaseAfterMin  int64
	ReleasedAtMin    *int64
	HoldUntilMin     *int64
	HoldReason       string
	HoldSetAtMin     *int64
	HoldCount        int64
	DispatchSeq      *int64
	CreatedAt        string
	UpdatedAt        string
}

// DispatchAssignment pairs an order with its downstream dispatch sequence
// number for a release cycle.
type DispatchAssignment struct {
	OrderID     string
	DispatchSeq int64
}
