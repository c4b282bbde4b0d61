package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/ports/secondary"
)

// SetHold suppresses an order's release eligibility until a minute.
// Repeated holds overwrite the previous one and bump the cumulative
// counter; there is no upper bound on holds per entry.
func (s *SchedulingServiceImpl) SetHold(ctx context.Context, req primary.SetHoldRequest) error {
	if !req.Stage.Valid() {
		return fmt.Errorf("invalid stage %q", req.Stage)
	}

	err := s.queueRepo.SetHold(ctx, req.Stage, req.FactoryID, req.OrderID, req.HoldUntilMin, req.Reason, req.SimMinute)
	if errors.Is(err, secondary.ErrNotFound) {
		return fmt.Errorf("no pending entry for order %s in %s: %w", req.OrderID, req.Stage.Short(), err)
	}
	if err != nil {
		return fmt.Errorf("failed to set hold: %w", err)
	}
	return nil
}

// ClearHold removes an order's hold. The cumulative hold count is kept.
func (s *SchedulingServiceImpl) ClearHold(ctx context.Context, req primary.ClearHoldRequest) error {
	if !req.Stage.Valid() {
		return fmt.Errorf("invalid stage %q", req.Stage)
	}

	err := s.queueRepo.ClearHold(ctx, req.Stage, req.FactoryID, req.OrderID)
	if errors.Is(err, secondary.ErrNotFound) {
		return fmt.Errorf("no pending entry for order %s in %s: %w", req.OrderID, req.Stage.Short(), err)
	}
	if err != nil {
		return fmt.Errorf("failed to clear hold: %w", err)
	}
	return nil
}

// SetMultipleHolds applies holds best-effort: one failing hold never
// blocks the others. The response itemizes failures.
func (s *SchedulingServiceImpl) SetMultipleHolds(ctx context.Context, req primary.SetMultipleHoldsRequest) (*primary.SetMultipleHoldsResponse, error) {
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", req.Stage)
	}

	resp := &primary.SetMultipleHoldsResponse{}
	for _, h := range req.Holds {
		err := s.queueRepo.SetHold(ctx, req.Stage, req.FactoryID, h.OrderID, h.HoldUntilMin, h.Reason, req.SimMinute)
		if err != nil {
			resp.Failed = append(resp.Failed, primary.HoldFailure{OrderID: h.OrderID, Reason: err.Error()})
			continue
		}
		resp.Applied++
	}
	return resp, nil
}
