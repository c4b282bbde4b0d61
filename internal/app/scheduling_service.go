// Package app implements the primary ports by orchestrating repositories,
// the optimizer bridge and the observability side channel.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/ports/secondary"
)

// SchedulingServiceImpl implements the SchedulingService interface.
type SchedulingServiceImpl struct {
	queueRepo    secondary.QueueRepository
	configRepo   secondary.StageConfigRepository
	deliveryRepo secondary.DeliveryDateRepository
	logRepo      secondary.SchedulingLogRepository
	optimizer    secondary.Optimizer // nil means FIFO only
	observer     secondary.RunObserver
	locks        *stageLocks

	// calendarEpoch, when set, maps sim-minute ETAs to wall-clock due
	// dates on persisted delivery records. Zero leaves DueAt unset.
	calendarEpoch time.Time
}

// NewSchedulingService creates a SchedulingService with injected
// dependencies. optimizer may be nil; observer may be nil (a no-op
// observer is substituted).
func NewSchedulingService(
	queueRepo secondary.QueueRepository,
	configRepo secondary.StageConfigRepository,
	deliveryRepo secondary.DeliveryDateRepository,
	logRepo secondary.SchedulingLogRepository,
	optimizer secondary.Optimizer,
	observer secondary.RunObserver,
) *SchedulingServiceImpl {
	if observer == nil {
		observer = secondary.NopObserver{}
	}
	return &SchedulingServiceImpl{
		queueRepo:    queueRepo,
		configRepo:   configRepo,
		deliveryRepo: deliveryRepo,
		logRepo:      logRepo,
		optimizer:    optimizer,
		observer:     observer,
		locks:        newStageLocks(),
	}
}

// SetCalendarEpoch enables the optional sim-minute-to-calendar mapping for
// persisted delivery dates.
func (s *SchedulingServiceImpl) SetCalendarEpoch(epoch time.Time) {
	s.calendarEpoch = epoch
}

// Enqueue adds an order to a stage queue. Duplicate pending orders are
// skipped; a released predecessor is retired and replaced.
func (s *SchedulingServiceImpl) Enqueue(ctx context.Context, req primary.EnqueueRequest) (*primary.EnqueueResponse, error) {
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", req.Stage)
	}

	if err := s.configRepo.Ensure(ctx, req.FactoryID); err != nil {
		return nil, fmt.Errorf("failed to ensure stage config: %w", err)
	}
	cfg, err := s.configRepo.Get(ctx, req.FactoryID, req.Stage)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage config: %w", err)
	}

	// Fast path: a pending entry already exists
	existing, err := s.queueRepo.GetPending(ctx, req.Stage, req.FactoryID, req.OrderID)
	if err != nil && !errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to check pending entry: %w", err)
	}
	if existing != nil {
		return &primary.EnqueueResponse{Skipped: true, Entry: recordToEntry(existing, req.SimMinute)}, nil
	}

	// Retire a released predecessor so the order gets a fresh entry
	if err := s.queueRepo.DeleteReleased(ctx, req.Stage, req.FactoryID, req.OrderID); err != nil {
		return nil, fmt.Errorf("failed to retire released entry: %w", err)
	}

	order, err := s.queueRepo.NextProcessingOrder(ctx, req.Stage, req.FactoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign processing order: %w", err)
	}

	entry := &secondary.QueueEntryRecord{
		OrderID:          req.OrderID,
		Stage:            req.Stage,
		FactoryID:        req.FactoryID,
		PossibleSequence: req.PossibleSequence,
		ProcessTimes:     req.ProcessTimes,
		ProcessingOrder:  order,
		QueuedAtMin:      req.SimMinute,
		ReleaseAfterMin:  cfg.ReleaseAfterMin,
	}

	err = s.queueRepo.Insert(ctx, entry)
	if errors.Is(err, secondary.ErrDuplicatePending) {
		// Lost a concurrent race for the same order; report the winner
		winner, gerr := s.queueRepo.GetPending(ctx, req.Stage, req.FactoryID, req.OrderID)
		if gerr != nil {
			return nil, fmt.Errorf("failed to load racing entry: %w", gerr)
		}
		return &primary.EnqueueResponse{Skipped: true, Entry: recordToEntry(winner, req.SimMinute)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue order: %w", err)
	}

	// First enqueue with batching enabled opens the accumulation window
	if queue.ShouldOpenWindow(cfg.ReleaseAfterMin, cfg.BatchStartMin) {
		if err := s.configRepo.OpenWindow(ctx, req.FactoryID, req.Stage, req.SimMinute); err != nil {
			return nil, fmt.Errorf("failed to open batch window: %w", err)
		}
	}

	return &primary.EnqueueResponse{Entry: recordToEntry(entry, req.SimMinute)}, nil
}

// ReleaseNext releases the single oldest individually-due entry. This path
// is driven by per-item due times and ignores batch windows.
func (s *SchedulingServiceImpl) ReleaseNext(ctx context.Context, req primary.ReleaseNextRequest) (*primary.ReleaseNextResponse, error) {
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", req.Stage)
	}

	unlock := s.locks.acquire(req.FactoryID, req.Stage)
	defer unlock()

	pending, err := s.queueRepo.ListPending(ctx, req.Stage, req.FactoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}
	if len(pending) == 0 {
		return &primary.ReleaseNextResponse{}, nil
	}

	minWait := int64(-1)
	for _, rec := range pending {
		r := queue.CheckReady(queue.ReadyContext{
			QueuedAtMin:     rec.QueuedAtMin,
			ReleaseAfterMin: rec.ReleaseAfterMin,
			HoldUntilMin:    rec.HoldUntilMin,
			NowMin:          req.SimMinute,
		})
		if !r.Ready {
			if minWait < 0 || r.WaitMinutes < minWait {
				minWait = r.WaitMinutes
			}
			continue
		}

		if r.Hold == queue.HoldExpired {
			if err := s.queueRepo.ClearHold(ctx, req.Stage, req.FactoryID, rec.OrderID); err != nil {
				return nil, fmt.Errorf("failed to clear expired hold: %w", err)
			}
		}

		releases := []secondary.DispatchAssignment{{OrderID: rec.OrderID, DispatchSeq: 1}}
		if err := s.queueRepo.ReleaseBatch(ctx, req.Stage, req.FactoryID, releases, req.SimMinute, nil); err != nil {
			return nil, fmt.Errorf("failed to release order %s: %w", rec.OrderID, err)
		}

		released := *rec
		v := req.SimMinute
		released.ReleasedAtMin = &v
		return &primary.ReleaseNextResponse{Released: true, Entry: recordToEntry(&released, req.SimMinute)}, nil
	}

	return &primary.ReleaseNextResponse{Waiting: true, WaitMinutes: minWait}, nil
}

// Status reports queue totals and per-entry readiness at a minute.
func (s *SchedulingServiceImpl) Status(ctx context.Context, req primary.StatusRequest) (*primary.StatusResponse, error) {
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", req.Stage)
	}

	pending, err := s.queueRepo.ListPending(ctx, req.Stage, req.FactoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	resp := &primary.StatusResponse{TotalCount: len(pending)}
	for _, rec := range pending {
		entry := recordToEntry(rec, req.SimMinute)
		if entry.IsReady {
			resp.ReadyCount++
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return resp, nil
}

// ClearAll drops all pending entries of a factory and closes every batch
// window. Released history and the scheduling log are kept.
func (s *SchedulingServiceImpl) ClearAll(ctx context.Context, factoryID string) (*primary.ClearAllResponse, error) {
	// Take every stage lock so no release cycle observes a half-reset
	for _, stage := range queue.Stages() {
		unlock := s.locks.acquire(factoryID, stage)
		defer unlock()
	}

	dropped, err := s.queueRepo.DeleteAllPending(ctx, factoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to drop pending entries: %w", err)
	}

	closed := 0
	configs, err := s.configRepo.List(ctx, factoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage configs: %w", err)
	}
	for _, cfg := range configs {
		if cfg.BatchStartMin == nil {
			continue
		}
		if err := s.configRepo.CloseWindow(ctx, factoryID, cfg.Stage); err != nil {
			return nil, fmt.Errorf("failed to close batch window: %w", err)
		}
		closed++
	}

	return &primary.ClearAllResponse{DroppedEntries: dropped, ClosedWindows: closed}, nil
}

// recordToEntry converts a persistence record to the primary-port view,
// computing readiness against now.
func recordToEntry(rec *secondary.QueueEntryRecord, now int64) *primary.QueueEntry {
	entry := &primary.QueueEntry{
		ID:              rec.ID,
		OrderID:         rec.OrderID,
		Stage:           rec.Stage,
		FactoryID:       rec.FactoryID,
		ProcessingOrder: rec.ProcessingOrder,
		QueuedAtMin:     rec.QueuedAtMin,
		ReleaseAfterMin: rec.ReleaseAfterMin,
		ReleasedAtMin:   rec.ReleasedAtMin,
		HoldUntilMin:    rec.HoldUntilMin,
		HoldReason:      rec.HoldReason,
		HoldCount:       rec.HoldCount,
		DispatchSeq:     rec.DispatchSeq,
	}

	if rec.ReleasedAtMin == nil {
		r := queue.CheckReady(queue.ReadyContext{
			QueuedAtMin:     rec.QueuedAtMin,
			ReleaseAfterMin: rec.ReleaseAfterMin,
			HoldUntilMin:    rec.HoldUntilMin,
			NowMin:          now,
		})
		entry.IsReady = r.Ready
		entry.WaitMinutes = r.WaitMinutes
	}
	return entry
}
