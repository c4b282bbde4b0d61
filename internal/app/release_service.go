package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/core/reconcile"
	"github.com/example/refab/internal/ctxutil"
	"github.com/example/refab/internal/simclock"
	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/ports/secondary"
)

// CheckAndReleaseBatch runs the full batched release cycle for one stage:
// window due check, hold partitioning, optimizer invocation,
// reconciliation, atomic release, ETA propagation and log append.
func (s *SchedulingServiceImpl) CheckAndReleaseBatch(ctx context.Context, req primary.BatchCheckRequest) (*primary.BatchCheckResponse, error) {
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", req.Stage)
	}

	unlock := s.locks.acquire(req.FactoryID, req.Stage)
	defer unlock()

	if err := s.configRepo.Ensure(ctx, req.FactoryID); err != nil {
		return nil, fmt.Errorf("failed to ensure stage config: %w", err)
	}
	cfg, err := s.configRepo.Get(ctx, req.FactoryID, req.Stage)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage config: %w", err)
	}

	pending, err := s.queueRepo.ListPending(ctx, req.Stage, req.FactoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	decision := queue.CheckWindow(queue.WindowContext{
		ReleaseAfterMin: cfg.ReleaseAfterMin,
		BatchStartMin:   cfg.BatchStartMin,
		PendingCount:    len(pending),
		NowMin:          req.SimMinute,
	})

	if decision.CloseWindow {
		if err := s.configRepo.CloseWindow(ctx, req.FactoryID, req.Stage); err != nil {
			return nil, fmt.Errorf("failed to close empty batch window: %w", err)
		}
		return &primary.BatchCheckResponse{Message: decision.Message}, nil
	}
	if !decision.Due {
		waiting := len(pending) > 0
		return &primary.BatchCheckResponse{Waiting: waiting, WaitMinutes: decision.WaitMinutes, Message: decision.Message}, nil
	}
	if len(pending) == 0 {
		return &primary.BatchCheckResponse{Message: "queue empty"}, nil
	}

	// Partition by hold state: active holds are excluded, expired holds
	// auto-clear and rejoin the candidate set this cycle.
	var candidates []*secondary.QueueEntryRecord
	var held []*secondary.QueueEntryRecord
	cleared := 0
	for _, rec := range pending {
		switch queue.Holding(rec.HoldUntilMin, req.SimMinute) {
		case queue.HoldActive:
			held = append(held, rec)
		case queue.HoldExpired:
			if err := s.queueRepo.ClearHold(ctx, req.Stage, req.FactoryID, rec.OrderID); err != nil {
				return nil, fmt.Errorf("failed to clear expired hold: %w", err)
			}
			cleared++
			candidates = append(candidates, rec)
		default:
			candidates = append(candidates, rec)
		}
	}

	if len(candidates) == 0 {
		return &primary.BatchCheckResponse{
			Waiting:          true,
			Message:          "all entries on hold",
			HoldCount:        len(held),
			ClearedHoldCount: cleared,
		}, nil
	}

	result, optimizerName := s.runOptimizer(ctx, req, cfg, candidates)

	// Optimizer hold decisions feed back into the hold registry and pull
	// their orders out of this cycle, best-effort.
	if result != nil && len(result.Holds) > 0 {
		candidates, held = s.applyOptimizerHolds(ctx, req, result.Holds, candidates, held)
		if len(candidates) == 0 {
			return &primary.BatchCheckResponse{
				Waiting:          true,
				Message:          "all entries on hold",
				HoldCount:        len(held),
				ClearedHoldCount: cleared,
			}, nil
		}
	}

	fifo := make([]string, len(candidates))
	byOrder := make(map[string]*secondary.QueueEntryRecord, len(candidates))
	for i, rec := range candidates {
		fifo[i] = rec.OrderID
		byOrder[rec.OrderID] = rec
	}

	var raw []string
	if result != nil {
		raw = result.ReleaseList
		if len(raw) == 0 {
			var groups [][]string
			for _, b := range result.Batches {
				groups = append(groups, b.OrderIDs)
			}
			raw = reconcile.FlattenBatches(groups)
		}
	}

	ordered := reconcile.Order(fifo, raw)
	reorder := reconcile.ReorderCount(fifo, ordered)
	diff := 0
	if len(raw) > 0 {
		diff = reconcile.DiffCount(ordered, raw)
	}

	// Atomic commit: release timestamps plus dispatch sequence, then the
	// held remainder keeps its relative priority for downstream stages.
	releases := make([]secondary.DispatchAssignment, len(ordered))
	for i, orderID := range ordered {
		releases[i] = secondary.DispatchAssignment{OrderID: orderID, DispatchSeq: int64(i + 1)}
	}
	var pendingSeqs []secondary.DispatchAssignment
	if req.Stage == queue.StagePreAcceptance {
		for i, rec := range held {
			pendingSeqs = append(pendingSeqs, secondary.DispatchAssignment{
				OrderID:     rec.OrderID,
				DispatchSeq: int64(len(ordered) + i + 1),
			})
		}
	}

	if err := s.queueRepo.ReleaseBatch(ctx, req.Stage, req.FactoryID, releases, req.SimMinute, pendingSeqs); err != nil {
		return nil, fmt.Errorf("failed to commit release batch: %w", err)
	}

	etaWrites, etaFailures := s.propagateETAs(ctx, req, result, optimizerName, byOrder)

	if err := s.configRepo.CloseWindow(ctx, req.FactoryID, req.Stage); err != nil {
		return nil, fmt.Errorf("failed to close batch window: %w", err)
	}

	s.appendSummaryLog(ctx, req, ordered, reorder, diff, len(held), cleared, optimizerName)

	s.observer.CycleCompleted(ctx, secondary.CycleSummary{
		FactoryID:        req.FactoryID,
		Stage:            req.Stage,
		NowMin:           req.SimMinute,
		Released:         true,
		OrderIDs:         ordered,
		HoldCount:        len(held),
		ClearedHoldCount: cleared,
		ReorderCount:     reorder,
		DiffCount:        diff,
		OptimizerName:    optimizerName,
		OptimizerUsed:    result != nil,
		EtaWrites:        etaWrites,
		EtaFailures:      etaFailures,
	})

	return &primary.BatchCheckResponse{
		BatchReleased:    true,
		Message:          decision.Message,
		OrderIDs:         ordered,
		HoldCount:        len(held),
		ClearedHoldCount: cleared,
		ReorderCount:     reorder,
		DiffCount:        diff,
	}, nil
}

// runOptimizer invokes the bridge at most once for this cycle. Any failure
// is recovered locally: the cycle proceeds on FIFO order. A result whose
// batch window changed while the call was in flight is discarded.
func (s *SchedulingServiceImpl) runOptimizer(ctx context.Context, req primary.BatchCheckRequest, cfg *secondary.StageConfigRecord, candidates []*secondary.QueueEntryRecord) (*secondary.OptimizerResult, string) {
	if s.optimizer == nil {
		return nil, ""
	}
	name := s.optimizer.Name()

	input := &secondary.OptimizerInput{
		FactoryID:       req.FactoryID,
		Stage:           req.Stage,
		NowMin:          req.SimMinute,
		ReleaseAfterMin: cfg.ReleaseAfterMin,
		BatchStartMin:   cfg.BatchStartMin,
	}
	for _, rec := range candidates {
		order := secondary.OptimizerOrder{
			OrderID:         rec.OrderID,
			ProcessingOrder: rec.ProcessingOrder,
			QueuedAtMin:     rec.QueuedAtMin,
		}
		if rec.PossibleSequence != "" {
			order.PossibleSequence = json.RawMessage(rec.PossibleSequence)
		}
		if rec.ProcessTimes != "" {
			order.ProcessTimes = json.RawMessage(rec.ProcessTimes)
		}
		input.Orders = append(input.Orders, order)
	}

	result, err := s.optimizer.Optimize(ctx, input)
	if err != nil {
		s.observer.OptimizerFailed(ctx, req.FactoryID, req.Stage, err)
		s.appendOptimizerLog(ctx, req, name, nil, err)
		return nil, name
	}

	// Discard a stale result: the window this run was computed for has
	// been released or reset in the meantime.
	fresh, err := s.configRepo.Get(ctx, req.FactoryID, req.Stage)
	if err == nil && !sameWindow(cfg.BatchStartMin, fresh.BatchStartMin) {
		s.observer.ResultDiscarded(ctx, req.FactoryID, req.Stage)
		return nil, name
	}

	s.appendOptimizerLog(ctx, req, name, result, nil)
	return result, name
}

func sameWindow(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// applyOptimizerHolds feeds optimizer hold decisions back into the hold
// registry, best-effort, and removes newly held orders from the candidate
// set.
func (s *SchedulingServiceImpl) applyOptimizerHolds(ctx context.Context, req primary.BatchCheckRequest, holds []secondary.OptimizerHold, candidates, held []*secondary.QueueEntryRecord) ([]*secondary.QueueEntryRecord, []*secondary.QueueEntryRecord) {
	heldNow := make(map[string]bool)
	for _, h := range holds {
		if h.UntilMin <= req.SimMinute {
			continue
		}
		if err := s.queueRepo.SetHold(ctx, req.Stage, req.FactoryID, h.OrderID, h.UntilMin, h.Reason, req.SimMinute); err != nil {
			// an unknown or already-released order does not block others
			continue
		}
		heldNow[h.OrderID] = true
	}
	if len(heldNow) == 0 {
		return candidates, held
	}

	var remaining []*secondary.QueueEntryRecord
	for _, rec := range candidates {
		if heldNow[rec.OrderID] {
			held = append(held, rec)
			continue
		}
		remaining = append(remaining, rec)
	}
	return remaining, held
}

// propagateETAs writes delivery-date records for every order the optimizer
// estimated, best-effort per order.
func (s *SchedulingServiceImpl) propagateETAs(ctx context.Context, req primary.BatchCheckRequest, result *secondary.OptimizerResult, optimizerName string, byOrder map[string]*secondary.QueueEntryRecord) (writes, failures int) {
	if result == nil {
		return 0, 0
	}
	clock := simclock.Fixed{Minute: simclock.Minute(req.SimMinute), Epoch: s.calendarEpoch}
	for _, eta := range result.ETAs {
		if eta.EtaMin <= 0 {
			continue
		}
		if _, ok := byOrder[eta.OrderID]; !ok {
			continue
		}
		rec := &secondary.DeliveryDateRecord{
			OrderID:       eta.OrderID,
			EtaMin:        eta.EtaMin,
			SourceStage:   req.Stage,
			OptimizerName: optimizerName,
		}
		if !s.calendarEpoch.IsZero() {
			rec.DueAt = clock.Calendar(clock.Now() + simclock.Minute(eta.EtaMin))
		}
		if err := s.deliveryRepo.SupersedeAndInsert(ctx, rec); err != nil {
			s.observer.EtaWriteFailed(ctx, req.FactoryID, eta.OrderID, err)
			failures++
			continue
		}
		writes++
	}
	return writes, failures
}

// appendOptimizerLog records a raw optimizer run, fire-and-forget.
func (s *SchedulingServiceImpl) appendOptimizerLog(ctx context.Context, req primary.BatchCheckRequest, name string, result *secondary.OptimizerResult, runErr error) {
	details := map[string]any{
		"optimizer": name,
		"nowMin":    req.SimMinute,
	}
	if runErr != nil {
		details["error"] = runErr.Error()
	}
	if result != nil {
		details["releaseList"] = result.ReleaseList
		details["etaCount"] = len(result.ETAs)
		details["holdCount"] = len(result.Holds)
		if len(result.Debug) > 0 {
			details["debug"] = result.Debug
		}
	}
	s.appendLog(ctx, req, secondary.LogModeOptimizerRun, details)
}

// appendSummaryLog records the post-release summary, fire-and-forget.
func (s *SchedulingServiceImpl) appendSummaryLog(ctx context.Context, req primary.BatchCheckRequest, ordered []string, reorder, diff, holdCount, cleared int, optimizerName string) {
	details := map[string]any{
		"orderIds":         ordered,
		"reorderCount":     reorder,
		"diffCount":        diff,
		"holdCount":        holdCount,
		"clearedHoldCount": cleared,
		"nowMin":           req.SimMinute,
	}
	if optimizerName != "" {
		details["optimizer"] = optimizerName
	}
	s.appendLog(ctx, req, secondary.LogModeReleaseSummary, details)
}

// appendLog serializes details and appends a scheduling-log entry. Append
// failures are observed, never propagated: the log is a side channel.
func (s *SchedulingServiceImpl) appendLog(ctx context.Context, req primary.BatchCheckRequest, mode string, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		s.observer.LogAppendFailed(ctx, req.FactoryID, req.Stage, err)
		return
	}
	rec := &secondary.SchedulingLogRecord{
		FactoryID: req.FactoryID,
		Stage:     req.Stage,
		Mode:      mode,
		Details:   string(payload),
		ActorID:   ctxutil.ActorFromContext(ctx),
	}
	if err := s.logRepo.Append(ctx, rec); err != nil {
		s.observer.LogAppendFailed(ctx, req.FactoryID, req.Stage, err)
	}
}
