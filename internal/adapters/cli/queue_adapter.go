// Package cli contains thin adapters that translate CLI operations to
// service calls and render the results. They depend only on the primary
// port interfaces, enabling easy testing with mocks.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/refab/internal/ports/primary"
)

// QueueAdapter translates queue CLI operations to SchedulingService calls.
type QueueAdapter struct {
	service primary.SchedulingService
	out     io.Writer
}

// NewQueueAdapter creates a new QueueAdapter with the given service.
func NewQueueAdapter(service primary.SchedulingService, out io.Writer) *QueueAdapter {
	return &QueueAdapter{
		service: service,
		out:     out,
	}
}

// Enqueue adds an order to a stage queue and reports the outcome.
func (a *QueueAdapter) Enqueue(ctx context.Context, req primary.EnqueueRequest) (*primary.EnqueueResponse, error) {
	resp, err := a.service.Enqueue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue order: %w", err)
	}

	if resp.Skipped {
		fmt.Fprintf(a.out, "%s %s already pending in %s (queued at minute %d)\n",
			color.New(color.FgYellow).Sprint("skipped:"),
			req.OrderID, req.Stage.Short(), resp.Entry.QueuedAtMin)
		return resp, nil
	}

	fmt.Fprintf(a.out, "Enqueued %s in %s at minute %d (position %d)\n",
		req.OrderID, req.Stage.Short(), req.SimMinute, resp.Entry.ProcessingOrder)
	return resp, nil
}

// ReleaseNext releases the oldest individually-due entry.
func (a *QueueAdapter) ReleaseNext(ctx context.Context, req primary.ReleaseNextRequest) (*primary.ReleaseNextResponse, error) {
	resp, err := a.service.ReleaseNext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to release: %w", err)
	}

	switch {
	case resp.Released:
		fmt.Fprintf(a.out, "%s %s released from %s at minute %d\n",
			color.New(color.FgHiGreen).Sprint("released:"),
			resp.Entry.OrderID, req.Stage.Short(), req.SimMinute)
	case resp.Waiting:
		fmt.Fprintf(a.out, "Nothing due in %s; next entry ready in %d min\n",
			req.Stage.Short(), resp.WaitMinutes)
	default:
		fmt.Fprintf(a.out, "Queue %s is empty.\n", req.Stage.Short())
	}
	return resp, nil
}

// CheckBatch runs a batched release cycle and reports the outcome.
func (a *QueueAdapter) CheckBatch(ctx context.Context, req primary.BatchCheckRequest) (*primary.BatchCheckResponse, error) {
	resp, err := a.service.CheckAndReleaseBatch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to run release cycle: %w", err)
	}

	switch {
	case resp.BatchReleased:
		fmt.Fprintf(a.out, "%s %d orders from %s at minute %d\n",
			color.New(color.FgHiGreen).Sprint("released:"),
			len(resp.OrderIDs), req.Stage.Short(), req.SimMinute)
		for i, id := range resp.OrderIDs {
			fmt.Fprintf(a.out, "  %2d. %s\n", i+1, id)
		}
		if resp.HoldCount > 0 {
			fmt.Fprintf(a.out, "  %d held back\n", resp.HoldCount)
		}
		if resp.ClearedHoldCount > 0 {
			fmt.Fprintf(a.out, "  %d expired holds cleared\n", resp.ClearedHoldCount)
		}
		if resp.ReorderCount > 0 || resp.DiffCount > 0 {
			fmt.Fprintf(a.out, "  optimizer moved %d, diverged on %d\n", resp.ReorderCount, resp.DiffCount)
		}
	case resp.Waiting:
		msg := resp.Message
		if msg == "" {
			msg = "waiting"
		}
		if resp.WaitMinutes > 0 {
			fmt.Fprintf(a.out, "%s (%d min remaining)\n", msg, resp.WaitMinutes)
		} else {
			fmt.Fprintln(a.out, msg)
		}
	default:
		if resp.Message != "" {
			fmt.Fprintln(a.out, resp.Message)
		} else {
			fmt.Fprintf(a.out, "Queue %s is empty.\n", req.Stage.Short())
		}
	}
	return resp, nil
}

// Status renders the pending entries of a stage at a minute.
func (a *QueueAdapter) Status(ctx context.Context, req primary.StatusRequest) (*primary.StatusResponse, error) {
	resp, err := a.service.Status(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	if resp.TotalCount == 0 {
		fmt.Fprintf(a.out, "Queue %s is empty.\n", req.Stage.Short())
		return resp, nil
	}

	fmt.Fprintf(a.out, "%s at minute %d: %d pending, %d ready\n",
		req.Stage.Short(), req.SimMinute, resp.TotalCount, resp.ReadyCount)

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "POS\tORDER\tQUEUED\tSTATE\tHOLDS")
	fmt.Fprintln(w, "---\t-----\t------\t-----\t-----")
	for _, e := range resp.Entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\n",
			e.ProcessingOrder, e.OrderID, e.QueuedAtMin, entryState(e), e.HoldCount)
	}
	w.Flush()
	return resp, nil
}

// Clear drops all pending entries of a factory.
func (a *QueueAdapter) Clear(ctx context.Context, factoryID string) (*primary.ClearAllResponse, error) {
	resp, err := a.service.ClearAll(ctx, factoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear queues: %w", err)
	}

	fmt.Fprintf(a.out, "Dropped %d pending entries, closed %d batch windows.\n",
		resp.DroppedEntries, resp.ClosedWindows)
	return resp, nil
}

func entryState(e *primary.QueueEntry) string {
	if e.HoldUntilMin != nil {
		return color.New(color.FgYellow).Sprintf("held until %d", *e.HoldUntilMin)
	}
	if e.IsReady {
		return color.New(color.FgHiGreen).Sprint("ready")
	}
	return fmt.Sprintf("wait %d min", e.WaitMinutes)
}
