// Package primary defines the primary ports (driving adapters) for the
// application: the service interfaces the CLI and simulation driver call,
// with their request/response structs.
//
// Waiting and Skipped outcomes are normal control flow, not errors. Errors
// cross these ports only for missing references and persistence failures.
package primary

import (
	"context"

	"github.com/example/refab/internal/core/queue"
)

// SchedulingService defines the primary port for queue and release
// operations. All timing arguments are simulation minutes supplied by the
// caller; the service never consults the wall clock for scheduling.
type SchedulingService interface {
	// Enqueue adds an order to a stage queue. A duplicate pending order
	// is reported as Skipped, not an error. A previously released entry
	// for the same order is retired and replaced by a fresh entry.
	Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResponse, error)

	// ReleaseNext releases the single oldest individually-due entry,
	// independent of batch windows.
	ReleaseNext(ctx context.Context, req ReleaseNextRequest) (*ReleaseNextResponse, error)

	// CheckAndReleaseBatch runs the full batched release cycle: window
	// due check, hold partitioning, optimizer invocation, reconciliation,
	// atomic release, ETA propagation and scheduling-log append.
	CheckAndReleaseBatch(ctx context.Context, req BatchCheckRequest) (*BatchCheckResponse, error)

	// Status reports queue totals and per-entry readiness at a minute.
	Status(ctx context.Context, req StatusRequest) (*StatusResponse, error)

	// SetHold suppresses an order's release eligibility until a minute.
	SetHold(ctx context.Context, req SetHoldRequest) error

	// ClearHold removes an order's hold. The hold count is preserved.
	ClearHold(ctx context.Context, req ClearHoldRequest) error

	// SetMultipleHolds applies holds best-effort and itemizes failures.
	SetMultipleHolds(ctx context.Context, req SetMultipleHoldsRequest) (*SetMultipleHoldsResponse, error)

	// ClearAll drops all pending entries of a factory and closes every
	// batch window. Released history and the scheduling log are kept.
	ClearAll(ctx context.Context, factoryID string) (*ClearAllResponse, error)
}

// EnqueueRequest contains parameters for enqueueing an order.
type EnqueueRequest struct {
	Stage            queue.Stage
	FactoryID        string
	OrderID          string
	SimMinute        int64
	PossibleSequence string // optional JSON payload, forwarded to the optimizer
	ProcessTimes     string // optional JSON payload, forwarded to the optimizer
}

// EnqueueResponse contains the result of an enqueue.
type EnqueueResponse struct {
	Skipped bool // a pending entry for the order already existed
	Entry   *QueueEntry
}

// ReleaseNextRequest contains parameters for a single-item release.
type ReleaseNextRequest struct {
	Stage     queue.Stage
	FactoryID string
	SimMinute int64
}

// ReleaseNextResponse contains the result of a single-item release.
type ReleaseNextResponse struct {
	Released    bool
	Waiting     bool
	WaitMinutes int64
	Entry       *QueueEntry
}

// BatchCheckRequest contains parameters for a batched release cycle.
type BatchCheckRequest struct {
	Stage     queue.Stage
	FactoryID string
	SimMinute int64
}

// BatchCheckResponse contains the result of a batched release cycle.
type BatchCheckResponse struct {
	BatchReleased    bool
	Waiting          bool
	WaitMinutes      int64
	Message          string
	OrderIDs         []string
	HoldCount        int // entries excluded by an active hold
	ClearedHoldCount int // expired holds auto-cleared this cycle
	ReorderCount     int
	DiffCount        int
}

// StatusRequest contains parameters for a queue status query.
type StatusRequest struct {
	Stage     queue.Stage
	FactoryID string
	SimMinute int64
}

// StatusResponse reports queue totals and per-entry readiness.
type StatusResponse struct {
	TotalCount int
	ReadyCount int
	Entries    []*QueueEntry
}

// SetHoldRequest contains parameters for placing a hold.
type SetHoldRequest struct {
	Stage        queue.Stage
	FactoryID    string
	OrderID      string
	HoldUntilMin int64
	Reason       string
	SimMinute    int64
}

// ClearHoldRequest contains parameters for clearing a hold.
type ClearHoldRequest struct {
	Stage     queue.Stage
	FactoryID string
	OrderID   string
}

// HoldSpec is one hold in a SetMultipleHolds request.
type HoldSpec struct {
	OrderID      string
	HoldUntilMin int64
	Reason       string
}

// SetMultipleHoldsRequest applies several holds in one call.
type SetMultipleHoldsRequest struct {
	Stage     queue.Stage
	FactoryID string
	Holds     []HoldSpec
	SimMinute int64
}

// SetMultipleHoldsResponse itemizes the outcome per hold.
type SetMultipleHoldsResponse struct {
	Applied int
	Failed  []HoldFailure
}

// HoldFailure names one hold that could not be applied.
type HoldFailure struct {
	OrderID string
	Reason  string
}

// ClearAllResponse reports the administrative reset outcome.
type ClearAllResponse struct {
	DroppedEntries int
	ClosedWindows  int
}

// QueueEntry is the primary-port view of a queue entry.
type QueueEntry struct {
	ID              string
	OrderID         string
	Stage           queue.Stage
	FactoryID       string
	ProcessingOrder int64
	QueuedAtMin     int64
	ReleaseAfterMin int64
	ReleasedAtMin   *int64
	HoldUntilMin    *int64
	HoldReason      string
	HoldCount       int64
	DispatchSeq     *int64
	IsReady         bool
	WaitMinutes     int64
}
