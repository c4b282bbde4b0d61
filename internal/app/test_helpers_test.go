package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var (
	_ secondary.QueueRepository       = (*mockQueueRepository)(nil)
	_ secondary.StageConfigRepository = (*mockStageConfigRepository)(nil)
	_ secondary.DeliveryDateRepository = (*mockDeliveryRepository)(nil)
	_ secondary.SchedulingLogRepository = (*mockLogRepository)(nil)
	_ secondary.Optimizer             = (*mockOptimizer)(nil)
	_ secondary.RunObserver           = (*recordingObserver)(nil)
)

// ============================================================================
// mockQueueRepository
// ============================================================================

type mockQueueRepository struct {
	mu      sync.Mutex
	entries []*secondary.QueueEntryRecord
	nextID  int

	insertErr  error
	listErr    error
	releaseErr error
	setHoldErr error
}

func newMockQueueRepository() *mockQueueRepository {
	return &mockQueueRepository{}
}

func (m *mockQueueRepository) Insert(ctx context.Context, entry *secondary.QueueEntryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, e := range m.entries {
		if e.Stage == entry.Stage && e.FactoryID == entry.FactoryID && e.OrderID == entry.OrderID && e.ReleasedAtMin == nil {
			return secondary.ErrDuplicatePending
		}
	}
	m.nextID++
	if entry.ID == "" {
		entry.ID = entryID(m.nextID)
	}
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func entryID(n int) string {
	return fmt.Sprintf("QE-%06d", n)
}

func (m *mockQueueRepository) find(stage queue.Stage, factoryID, orderID string, pending bool) *secondary.QueueEntryRecord {
	for _, e := range m.entries {
		if e.Stage == stage && e.FactoryID == factoryID && e.OrderID == orderID && (e.ReleasedAtMin == nil) == pending {
			return e
		}
	}
	return nil
}

func (m *mockQueueRepository) GetPending(ctx context.Context, stage queue.Stage, factoryID, orderID string) (*secondary.QueueEntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.find(stage, factoryID, orderID, true); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockQueueRepository) ListPending(ctx context.Context, stage queue.Stage, factoryID string) ([]*secondary.QueueEntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.QueueEntryRecord
	for _, e := range m.entries {
		if e.Stage == stage && e.FactoryID == factoryID && e.ReleasedAtMin == nil {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProcessingOrder != out[j].ProcessingOrder {
			return out[i].ProcessingOrder < out[j].ProcessingOrder
		}
		return out[i].QueuedAtMin < out[j].QueuedAtMin
	})
	return out, nil
}

func (m *mockQueueRepository) NextProcessingOrder(ctx context.Context, stage queue.Stage, factoryID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int64
	for _, e := range m.entries {
		if e.Stage == stage && e.FactoryID == factoryID && e.ProcessingOrder > max {
			max = e.ProcessingOrder
		}
	}
	return max + 1, nil
}

func (m *mockQueueRepository) DeleteReleased(ctx context.Context, stage queue.Stage, factoryID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*secondary.QueueEntryRecord
	for _, e := range m.entries {
		if e.Stage == stage && e.FactoryID == factoryID && e.OrderID == orderID && e.ReleasedAtMin != nil {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return nil
}

func (m *mockQueueRepository) SetHold(ctx context.Context, stage queue.Stage, factoryID, orderID string, untilMin int64, reason string, nowMin int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setHoldErr != nil {
		return m.setHoldErr
	}
	e := m.find(stage, factoryID, orderID, true)
	if e == nil {
		return secondary.ErrNotFound
	}
	until, setAt := untilMin, nowMin
	e.HoldUntilMin = &until
	e.HoldReason = reason
	e.HoldSetAtMin = &setAt
	e.HoldCount++
	return nil
}

func (m *mockQueueRepository) ClearHold(ctx context.Context, stage queue.Stage, factoryID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(stage, factoryID, orderID, true)
	if e == nil {
		return secondary.ErrNotFound
	}
	e.HoldUntilMin = nil
	e.HoldReason = ""
	e.HoldSetAtMin = nil
	return nil
}

func (m *mockQueueRepository) ReleaseBatch(ctx context.Context, stage queue.Stage, factoryID string, releases []secondary.DispatchAssignment, simMinute int64, pendingSeqs []secondary.DispatchAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.releaseErr != nil {
		return m.releaseErr
	}
	// all-or-nothing: verify every order is pending before touching any
	for _, a := range releases {
		if m.find(stage, factoryID, a.OrderID, true) == nil {
			return errors.New("order is no longer pending")
		}
	}
	for _, a := range releases {
		e := m.find(stage, factoryID, a.OrderID, true)
		min, seq := simMinute, a.DispatchSeq
		e.ReleasedAtMin = &min
		e.DispatchSeq = &seq
	}
	for _, a := range pendingSeqs {
		if e := m.find(stage, factoryID, a.OrderID, true); e != nil {
			seq := a.DispatchSeq
			e.DispatchSeq = &seq
		}
	}
	return nil
}

func (m *mockQueueRepository) DeleteAllPending(ctx context.Context, factoryID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*secondary.QueueEntryRecord
	n := 0
	for _, e := range m.entries {
		if e.FactoryID == factoryID && e.ReleasedAtMin == nil {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

// ============================================================================
// mockStageConfigRepository
// ============================================================================

type mockStageConfigRepository struct {
	mu      sync.Mutex
	configs map[stageKey]*secondary.StageConfigRecord
}

func newMockStageConfigRepository() *mockStageConfigRepository {
	return &mockStageConfigRepository{configs: make(map[stageKey]*secondary.StageConfigRecord)}
}

func (m *mockStageConfigRepository) Get(ctx context.Context, factoryID string, stage queue.Stage) (*secondary.StageConfigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[stageKey{factoryID, stage}]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	cp := *cfg
	if cfg.BatchStartMin != nil {
		v := *cfg.BatchStartMin
		cp.BatchStartMin = &v
	}
	return &cp, nil
}

func (m *mockStageConfigRepository) List(ctx context.Context, factoryID string) ([]*secondary.StageConfigRecord, error) {
	var out []*secondary.StageConfigRecord
	for _, stage := range queue.Stages() {
		if cfg, err := m.Get(ctx, factoryID, stage); err == nil {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (m *mockStageConfigRepository) Ensure(ctx context.Context, factoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stage := range queue.Stages() {
		key := stageKey{factoryID, stage}
		if _, ok := m.configs[key]; !ok {
			m.configs[key] = &secondary.StageConfigRecord{FactoryID: factoryID, Stage: stage}
		}
	}
	return nil
}

func (m *mockStageConfigRepository) SetReleaseAfter(ctx context.Context, factoryID string, stage queue.Stage, minutes int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[stageKey{factoryID, stage}]
	if !ok {
		return secondary.ErrNotFound
	}
	cfg.ReleaseAfterMin = minutes
	return nil
}

func (m *mockStageConfigRepository) OpenWindow(ctx context.Context, factoryID string, stage queue.Stage, startMin int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[stageKey{factoryID, stage}]
	if !ok {
		return secondary.ErrNotFound
	}
	if cfg.BatchStartMin == nil {
		v := startMin
		cfg.BatchStartMin = &v
	}
	return nil
}

func (m *mockStageConfigRepository) CloseWindow(ctx context.Context, factoryID string, stage queue.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[stageKey{factoryID, stage}]
	if !ok {
		return secondary.ErrNotFound
	}
	cfg.BatchStartMin = nil
	return nil
}

// ============================================================================
// mockDeliveryRepository
// ============================================================================

type mockDeliveryRepository struct {
	mu           sync.Mutex
	records      []*secondary.DeliveryDateRecord
	supersedeErr error
	failOrders   map[string]error // per-order failures
}

func newMockDeliveryRepository() *mockDeliveryRepository {
	return &mockDeliveryRepository{failOrders: make(map[string]error)}
}

func (m *mockDeliveryRepository) SupersedeAndInsert(ctx context.Context, rec *secondary.DeliveryDateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.supersedeErr != nil {
		return m.supersedeErr
	}
	if err, ok := m.failOrders[rec.OrderID]; ok {
		return err
	}
	for _, r := range m.records {
		if r.OrderID == rec.OrderID {
			r.IsCurrent = false
		}
	}
	cp := *rec
	cp.IsCurrent = true
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockDeliveryRepository) Current(ctx context.Context, orderID string) (*secondary.DeliveryDateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.OrderID == orderID && r.IsCurrent {
			cp := *r
			return &cp, nil
		}
	}
	return nil, secondary.ErrNotFound
}

func (m *mockDeliveryRepository) History(ctx context.Context, orderID string) ([]*secondary.DeliveryDateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.DeliveryDateRecord
	for _, r := range m.records {
		if r.OrderID == orderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ============================================================================
// mockLogRepository
// ============================================================================

type mockLogRepository struct {
	mu        sync.Mutex
	records   []*secondary.SchedulingLogRecord
	appendErr error
}

func newMockLogRepository() *mockLogRepository {
	return &mockLogRepository{}
}

func (m *mockLogRepository) Append(ctx context.Context, rec *secondary.SchedulingLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockLogRepository) Tail(ctx context.Context, factoryID string, limit int) ([]*secondary.SchedulingLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.SchedulingLogRecord
	for i := len(m.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.records[i].FactoryID == factoryID {
			cp := *m.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockLogRepository) byMode(mode string) []*secondary.SchedulingLogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.SchedulingLogRecord
	for _, r := range m.records {
		if r.Mode == mode {
			out = append(out, r)
		}
	}
	return out
}

// ============================================================================
// mockOptimizer
// ============================================================================

type mockOptimizer struct {
	result    *secondary.OptimizerResult
	err       error
	lastInput *secondary.OptimizerInput
	calls     int
	onCall    func() // runs during Optimize, before returning
}

func (m *mockOptimizer) Name() string { return "mockopt" }

func (m *mockOptimizer) Optimize(ctx context.Context, input *secondary.OptimizerInput) (*secondary.OptimizerResult, error) {
	m.calls++
	m.lastInput = input
	if m.onCall != nil {
		m.onCall()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// ============================================================================
// recordingObserver
// ============================================================================

type recordingObserver struct {
	mu               sync.Mutex
	cycles           []secondary.CycleSummary
	optimizerFails   int
	etaFails         int
	logAppendFails   int
	resultsDiscarded int
}

func (o *recordingObserver) CycleCompleted(_ context.Context, s secondary.CycleSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycles = append(o.cycles, s)
}

func (o *recordingObserver) OptimizerFailed(context.Context, string, queue.Stage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.optimizerFails++
}

func (o *recordingObserver) EtaWriteFailed(context.Context, string, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.etaFails++
}

func (o *recordingObserver) LogAppendFailed(context.Context, string, queue.Stage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logAppendFails++
}

func (o *recordingObserver) ResultDiscarded(context.Context, string, queue.Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resultsDiscarded++
}

// ============================================================================
// fixture
// ============================================================================

type fixture struct {
	queueRepo  *mockQueueRepository
	configRepo *mockStageConfigRepository
	delivery   *mockDeliveryRepository
	logRepo    *mockLogRepository
	optimizer  *mockOptimizer
	observer   *recordingObserver
	svc        *SchedulingServiceImpl
}

func newFixture(opt *mockOptimizer) *fixture {
	f := &fixture{
		queueRepo:  newMockQueueRepository(),
		configRepo: newMockStageConfigRepository(),
		delivery:   newMockDeliveryRepository(),
		logRepo:    newMockLogRepository(),
		optimizer:  opt,
		observer:   &recordingObserver{},
	}
	var bridge secondary.Optimizer
	if opt != nil {
		bridge = opt
	}
	f.svc = NewSchedulingService(f.queueRepo, f.configRepo, f.delivery, f.logRepo, bridge, f.observer)
	return f
}
