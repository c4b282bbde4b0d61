package secondary

import (
	"context"

	"github.com/example/refab/internal/core/queue"
)

// RunObserver is the logging side channel. Services report cycle outcomes
// and recovered failures through it instead of logging inline; control flow
// never depends on an observer call.
type RunObserver interface {
	// CycleCompleted reports a finished check-and-release cycle.
	CycleCompleted(ctx context.Context, s CycleSummary)

	// OptimizerFailed reports a recovered optimizer failure (FIFO
	// fallback was used).
	OptimizerFailed(ctx context.Context, factoryID string, stage queue.Stage, err error)

	// EtaWriteFailed reports a recovered per-order ETA write failure.
	EtaWriteFailed(ctx context.Context, factoryID, orderID string, err error)

	// LogAppendFailed reports a recovered scheduling-log append failure.
	LogAppendFailed(ctx context.Context, factoryID string, stage queue.Stage, err error)

	// ResultDiscarded reports an optimizer result dropped because its
	// batch window was released or reset while the call was in flight.
	ResultDiscarded(ctx context.Context, factoryID string, stage queue.Stage)
}

// CycleSummary describes one check-and-release cycle for observability.
type CycleSummary struct {
	FactoryID        string
	Stage            queue.Stage
	NowMin           int64
	Released         bool
	OrderIDs         []string
	HoldCount        int
	ClearedHoldCount int
	ReorderCount     int
	DiffCount        int
	OptimizerName    string
	OptimizerUsed    bool
	EtaWrites        int
	EtaFailures      int
}

// NopObserver is a RunObserver that discards everything. Useful in tests
// and as a default when no logger is wired.
type NopObserver struct{}

func (NopObserver) CycleCompleted(context.Context, CycleSummary)                        {}
func (NopObserver) OptimizerFailed(context.Context, string, queue.Stage, error)         {}
func (NopObserver) EtaWriteFailed(context.Context, string, string, error)               {}
func (NopObserver) LogAppendFailed(context.Context, string, queue.Stage, error)         {}
func (NopObserver) ResultDiscarded(context.Context, string, queue.Stage)                {}
