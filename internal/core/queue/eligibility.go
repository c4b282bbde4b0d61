package queue

// HoldState classifies an entry's hold fields against the current minute.
type HoldState int

const (
	// HoldNone means the entry carries no hold.
	HoldNone HoldState = iota
	// HoldActive means the entry is suppressed until a future minute.
	HoldActive
	// HoldExpired means a hold exists but its minute has passed; the
	// entry re-enters the candidate set once the hold is auto-cleared.
	HoldExpired
)

// Holding evaluates the hold state of an entry at the given minute.
// A hold expires the moment now reaches holdUntil.
func Holding(holdUntil *int64, now int64) HoldState {
	if holdUntil == nil {
		return HoldNone
	}
	if now >= *holdUntil {
		return HoldExpired
	}
	return HoldActive
}

// ReadyContext provides the inputs for per-entry readiness evaluation.
type ReadyContext struct {
	QueuedAtMin     int64
	ReleaseAfterMin int64
	HoldUntilMin    *int64
	NowMin          int64
}

// Readiness is the outcome of a per-entry readiness check.
type Readiness struct {
	Ready       bool
	WaitMinutes int64
	Hold        HoldState
}

// CheckReady evaluates whether a single entry is individually due for
// release at now. An active hold always wins over elapsed wait time.
func CheckReady(ctx ReadyContext) Readiness {
	r := Readiness{Hold: Holding(ctx.HoldUntilMin, ctx.NowMin)}

	dueAt := ctx.QueuedAtMin + ctx.ReleaseAfterMin
	if ctx.NowMin < dueAt {
		r.WaitMinutes = dueAt - ctx.NowMin
		return r
	}

	if r.Hold == HoldActive {
		r.WaitMinutes = *ctx.HoldUntilMin - ctx.NowMin
		return r
	}

	r.Ready = true
	return r
}
