package secondary

import (
	"context"

	"github.com/example/refab/internal/core/queue"
)

// StageConfigRepository defines the secondary port for per-factory stage
// configuration. Config is always read through this port, never held as
// ambient state, so concurrent factories stay independent.
type StageConfigRepository interface {
	// Get retrieves the config row for one stage, or ErrNotFound.
	Get(ctx context.Context, factoryID string, stage queue.Stage) (*StageConfigRecord, error)

	// List retrieves all stage configs of a factory in pipeline order.
	List(ctx context.Context, factoryID string) ([]*StageConfigRecord, error)

	// Ensure creates default config rows (releaseAfter=0, no window) for
	// any stage of the factory that has none yet.
	Ensure(ctx context.Context, factoryID string) error

	// SetReleaseAfter updates the accumulation period for one stage.
	SetReleaseAfter(ctx context.Context, factoryID string, stage queue.Stage, minutes int64) error

	// OpenWindow sets batch_start_min if and only if no window is open.
	// Opening an already-open window is a no-op, so the start minute is
	// set at most once per window.
	OpenWindow(ctx context.Context, factoryID string, stage queue.Stage, startMin int64) error

	// CloseWindow nulls batch_start_min.
	CloseWindow(ctx context.Context, factoryID string, stage queue.Stage) error
}

// StageConfigRecord represents one factory/stage config row.
type StageConfigRecord struct {
	FactoryID       string
	Stage           queue.Stage
	ReleaseAfterMin int64
	BatchStartMin   *int64
}
