package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/refab/internal/ports/primary"
)

// LogAdapter translates log CLI operations to LogService calls.
type LogAdapter struct {
	service primary.LogService
	out     io.Writer
}

// NewLogAdapter creates a new LogAdapter with the given service.
func NewLogAdapter(service primary.LogService, out io.Writer) *LogAdapter {
	return &LogAdapter{
		service: service,
		out:     out,
	}
}

// Tail renders the newest scheduling-log entries, newest first.
func (a *LogAdapter) Tail(ctx context.Context, factoryID string, limit int) ([]*primary.LogEntry, error) {
	entries, err := a.service.TailLog(ctx, factoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to tail log: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No scheduling log entries.")
		return entries, nil
	}

	for _, e := range entries {
		actor := ""
		if e.ActorID != "" {
			actor = fmt.Sprintf(" by %s", e.ActorID)
		}
		fmt.Fprintf(a.out, "[%s] %s %s%s\n", e.CreatedAt, e.Stage.Short(), e.Mode, actor)
		fmt.Fprintf(a.out, "    %s\n", e.Details)
	}
	return entries, nil
}
