package secondary

import (
	"context"

	"github.com/example/refab/internal/core/queue"
)

// Scheduling log modes.
const (
	// LogModeOptimizerRun records a raw optimizer invocation.
	LogModeOptimizerRun = "optimizer_run"
	// LogModeReleaseSummary records a post-release cycle summary.
	LogModeReleaseSummary = "release_summary"
)

// SchedulingLogRepository defines the secondary port for the append-only
// scheduling log. Entries are never mutated; external dashboards tail them.
type SchedulingLogRepository interface {
	// Append persists a new log entry.
	Append(ctx context.Context, rec *SchedulingLogRecord) error

	// Tail retrieves the newest entries for a factory, newest first.
	// limit <= 0 means a small default page.
	Tail(ctx context.Context, factoryID string, limit int) ([]*SchedulingLogRecord, error)
}

// SchedulingLogRecord represents one append-only scheduling log entry.
type SchedulingLogRecord struct {
	ID        string
	FactoryID string
	Stage     queue.Stage
	Mode      string
	Details   string // structured JSON run summary
	ActorID   string
	CreatedAt string
}
