package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/refab/internal/ports/primary"
)

// HoldAdapter translates hold CLI operations to SchedulingService calls.
type HoldAdapter struct {
	service primary.SchedulingService
	out     io.Writer
}

// NewHoldAdapter creates a new HoldAdapter with the given service.
func NewHoldAdapter(service primary.SchedulingService, out io.Writer) *HoldAdapter {
	return &HoldAdapter{
		service: service,
		out:     out,
	}
}

// Set places a hold on an order.
func (a *HoldAdapter) Set(ctx context.Context, req primary.SetHoldRequest) error {
	if err := a.service.SetHold(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Hold on %s in %s until minute %d", req.OrderID, req.Stage.Short(), req.HoldUntilMin)
	if req.Reason != "" {
		fmt.Fprintf(a.out, " (%s)", req.Reason)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Clear removes a hold from an order.
func (a *HoldAdapter) Clear(ctx context.Context, req primary.ClearHoldRequest) error {
	if err := a.service.ClearHold(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Hold cleared on %s in %s\n", req.OrderID, req.Stage.Short())
	return nil
}

// SetMultiple applies several holds best-effort and reports each failure.
func (a *HoldAdapter) SetMultiple(ctx context.Context, req primary.SetMultipleHoldsRequest) (*primary.SetMultipleHoldsResponse, error) {
	resp, err := a.service.SetMultipleHolds(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "Applied %d of %d holds in %s\n", resp.Applied, len(req.Holds), req.Stage.Short())
	for _, f := range resp.Failed {
		fmt.Fprintf(a.out, "  %s %s: %s\n",
			color.New(color.FgRed).Sprint("failed:"), f.OrderID, f.Reason)
	}
	return resp, nil
}
