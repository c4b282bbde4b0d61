// Package logging contains the zerolog-backed RunObserver. Observability
// is a side channel: nothing in the release path depends on these calls.
package logging

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

// Observer implements secondary.RunObserver on a zerolog.Logger.
type Observer struct {
	log zerolog.Logger
}

// New creates an Observer writing console-formatted events to out.
func New(out io.Writer, level string) *Observer {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out}).
		Level(lvl).
		With().Timestamp().Logger()
	return &Observer{log: logger}
}

// NewWithLogger wraps an existing logger, for embedding refab in a larger
// process that already configures zerolog.
func NewWithLogger(logger zerolog.Logger) *Observer {
	return &Observer{log: logger}
}

// CycleCompleted reports a finished check-and-release cycle.
func (o *Observer) CycleCompleted(_ context.Context, s secondary.CycleSummary) {
	o.log.Info().
		Str("factory", s.FactoryID).
		Str("stage", s.Stage.Short()).
		Int64("now", s.NowMin).
		Bool("released", s.Released).
		Strs("orders", s.OrderIDs).
		Int("held", s.HoldCount).
		Int("holds_cleared", s.ClearedHoldCount).
		Int("reordered", s.ReorderCount).
		Int("diff", s.DiffCount).
		Bool("optimizer_used", s.OptimizerUsed).
		Str("optimizer", s.OptimizerName).
		Int("eta_writes", s.EtaWrites).
		Int("eta_failures", s.EtaFailures).
		Msg("release cycle completed")
}

// OptimizerFailed reports a recovered optimizer failure.
func (o *Observer) OptimizerFailed(_ context.Context, factoryID string, stage queue.Stage, err error) {
	o.log.Warn().
		Str("factory", factoryID).
		Str("stage", stage.Short()).
		Err(err).
		Msg("optimizer failed, falling back to FIFO order")
}

// EtaWriteFailed reports a recovered per-order ETA write failure.
func (o *Observer) EtaWriteFailed(_ context.Context, factoryID, orderID string, err error) {
	o.log.Warn().
		Str("factory", factoryID).
		Str("order", orderID).
		Err(err).
		Msg("delivery date write failed")
}

// LogAppendFailed reports a recovered scheduling-log append failure.
func (o *Observer) LogAppendFailed(_ context.Context, factoryID string, stage queue.Stage, err error) {
	o.log.Warn().
		Str("factory", factoryID).
		Str("stage", stage.Short()).
		Err(err).
		Msg("scheduling log append failed")
}

// ResultDiscarded reports an optimizer result dropped after its window
// changed mid-flight.
func (o *Observer) ResultDiscarded(_ context.Context, factoryID string, stage queue.Stage) {
	o.log.Warn().
		Str("factory", factoryID).
		Str("stage", stage.Short()).
		Msg("stale optimizer result discarded")
}
