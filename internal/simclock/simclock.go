// Package simclock defines the simulated-time model used throughout refab.
//
// All scheduling arithmetic runs on abstract simulation minutes supplied by
// the caller, never the wall clock. The only sanctioned wall-clock use is
// the optional mapping of a sim-minute ETA to a calendar date at the moment
// a delivery-date record is persisted.
package simclock

import "time"

// Minute is a point (or span) on the simulation timeline.
type Minute int64

// Clock resolves the current simulation minute and translates sim-minutes
// into calendar time for persisted records.
type Clock interface {
	// Now returns the current simulation minute.
	Now() Minute

	// Calendar maps a sim-minute offset from the clock's epoch to a
	// wall-clock time. A zero epoch yields a zero time.
	Calendar(m Minute) time.Time
}

// Fixed is a Clock pinned to a single caller-supplied minute.
// The simulation driver constructs one per tick.
type Fixed struct {
	Minute Minute
	Epoch  time.Time
}

// Now returns the pinned simulation minute.
func (f Fixed) Now() Minute { return f.Minute }

// Calendar maps m minutes past the epoch to wall-clock time.
func (f Fixed) Calendar(m Minute) time.Time {
	if f.Epoch.IsZero() {
		return time.Time{}
	}
	return f.Epoch.Add(time.Duration(m) * time.Minute)
}

// At returns a Fixed clock pinned to minute m with no calendar epoch.
func At(m Minute) Fixed { return Fixed{Minute: m} }

// WaitUntil returns how many minutes remain from now until target,
// clamped at zero.
func WaitUntil(now, target Minute) Minute {
	if target <= now {
		return 0
	}
	return target - now
}
