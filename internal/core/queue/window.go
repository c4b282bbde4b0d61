package queue

// WindowContext provides the inputs for a batch-window due check.
type WindowContext struct {
	ReleaseAfterMin int64
	BatchStartMin   *int64
	PendingCount    int
	NowMin          int64
}

// WindowDecision is the outcome of a batch-window due check.
type WindowDecision struct {
	Due         bool
	WaitMinutes int64
	CloseWindow bool // stale window should be cleared without releasing
	Message     string
}

// CheckWindow decides whether a stage is due for a batched release.
// Rules:
//   - releaseAfter == 0: always due, no batching (every tick releases all
//     eligible entries). A stale open window is ignored, not reset here.
//   - empty pending set with an open window: close the window, not due.
//   - no open window: not due.
//   - otherwise due iff now has reached batchStart + releaseAfter.
func CheckWindow(ctx WindowContext) WindowDecision {
	if ctx.ReleaseAfterMin == 0 {
		return WindowDecision{Due: true, Message: "immediate release"}
	}

	if ctx.PendingCount == 0 {
		if ctx.BatchStartMin != nil {
			return WindowDecision{CloseWindow: true, Message: "queue empty, window closed"}
		}
		return WindowDecision{Message: "queue empty"}
	}

	if ctx.BatchStartMin == nil {
		return WindowDecision{Message: "no active batch"}
	}

	dueAt := *ctx.BatchStartMin + ctx.ReleaseAfterMin
	if ctx.NowMin < dueAt {
		return WindowDecision{WaitMinutes: dueAt - ctx.NowMin, Message: "batch maturing"}
	}

	return WindowDecision{Due: true, Message: "batch due"}
}

// ShouldOpenWindow reports whether an enqueue at now must open the batch
// window. The window opens on the first enqueue into a stage with batching
// enabled and no window already open; it reopens the same way after an
// empty-triggered reset.
func ShouldOpenWindow(releaseAfterMin int64, batchStartMin *int64) bool {
	return releaseAfterMin > 0 && batchStartMin == nil
}
