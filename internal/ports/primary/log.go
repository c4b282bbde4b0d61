package primary

import (
	"context"

	"github.com/example/refab/internal/core/queue"
)

// LogService defines the primary port for the read-only scheduling-log
// view consumed by dashboards and the CLI.
type LogService interface {
	// TailLog retrieves the newest scheduling-log entries for a factory,
	// newest first. limit <= 0 selects a default page.
	TailLog(ctx context.Context, factoryID string, limit int) ([]*LogEntry, error)
}

// LogEntry is the primary-port view of one scheduling-log record.
type LogEntry struct {
	ID        string
	FactoryID string
	Stage     queue.Stage
	Mode      string
	Details   string
	ActorID   string
	CreatedAt string
}
