package secondary

import (
	"context"
	"encoding/json"

	"github.com/example/refab/internal/core/queue"
)

// Optimizer defines the secondary port to the pluggable reordering and
// annotation algorithm. Implementations may cross a process or network
// boundary and may fail; callers treat any error as "no opinion" and fall
// back to FIFO order. The port is invoked at most once per stage per
// release-check cycle and is never retried within a cycle.
type Optimizer interface {
	// Name identifies the optimizer for log and delivery-date attribution.
	Name() string

	// Optimize submits the full pending pool and stage config. The call
	// must honor ctx cancellation; the caller bounds it with the
	// configured timeout.
	Optimize(ctx context.Context, input *OptimizerInput) (*OptimizerResult, error)
}

// OptimizerInput is the wire input: the candidate pool plus stage config.
type OptimizerInput struct {
	FactoryID       string           `json:"factoryId"`
	Stage           queue.Stage      `json:"stage"`
	NowMin          int64            `json:"nowMin"`
	ReleaseAfterMin int64            `json:"releaseAfterMin"`
	BatchStartMin   *int64           `json:"batchStartMin,omitempty"`
	Orders          []OptimizerOrder `json:"orders"`
}

// OptimizerOrder is one candidate as presented to the optimizer. The
// payload fields are forwarded verbatim; the core never interprets them.
type OptimizerOrder struct {
	OrderID          string          `json:"id"`
	ProcessingOrder  int64           `json:"processingOrder"`
	QueuedAtMin      int64           `json:"queuedAtMin"`
	PossibleSequence json.RawMessage `json:"possibleSequence,omitempty"`
	ProcessTimes     json.RawMessage `json:"processTimes,omitempty"`
}

// OptimizerResult is the wire output. Every field is optional; absence
// means "no opinion" and must be tolerated.
type OptimizerResult struct {
	Batches     []OptimizerBatch    `json:"batches,omitempty"`
	ReleaseList []string            `json:"releaseList,omitempty"`
	ETAs        []OptimizerETA      `json:"etaList,omitempty"`
	Priorities  []OptimizerPriority `json:"priorities,omitempty"`
	Holds       []OptimizerHold     `json:"holdDecisions,omitempty"`
	Debug       []string            `json:"debug,omitempty"`
}

// OptimizerBatch groups orders the optimizer wants released together.
type OptimizerBatch struct {
	OrderIDs   []string `json:"orderIds"`
	ReleaseMin *int64   `json:"releaseMin,omitempty"`
}

// OptimizerETA is an estimated completion for one order, in sim-minutes
// from the run's now.
type OptimizerETA struct {
	OrderID string `json:"id"`
	EtaMin  int64  `json:"eta"`
}

// OptimizerPriority is an advisory priority for one order.
type OptimizerPriority struct {
	OrderID  string `json:"id"`
	Priority int64  `json:"priority"`
}

// OptimizerHold asks the scheduler to suppress an order until a minute.
type OptimizerHold struct {
	OrderID  string `json:"id"`
	UntilMin int64  `json:"holdUntil"`
	Reason   string `json:"reason,omitempty"`
}
