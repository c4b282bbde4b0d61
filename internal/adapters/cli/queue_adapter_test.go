package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/primary"
)

// mockSchedulingService implements primary.SchedulingService for testing
type mockSchedulingService struct {
	enqueueFn    func(ctx context.Context, req primary.EnqueueRequest) (*primary.EnqueueResponse, error)
	releaseFn    func(ctx context.Context, req primary.ReleaseNextRequest) (*primary.ReleaseNextResponse, error)
	batchCheckFn func(ctx context.Context, req primary.BatchCheckRequest) (*primary.BatchCheckResponse, error)
	statusFn     func(ctx context.Context, req primary.StatusRequest) (*primary.StatusResponse, error)
	setHoldFn    func(ctx context.Context, req primary.SetHoldRequest) error
	clearHoldFn  func(ctx context.Context, req primary.ClearHoldRequest) error
	setMultiFn   func(ctx context.Context, req primary.SetMultipleHoldsRequest) (*primary.SetMultipleHoldsResponse, error)
	clearAllFn   func(ctx context.Context, factoryID string) (*primary.ClearAllResponse, error)

	lastHoldReq primary.SetHoldRequest
}

func (m *mockSchedulingService) Enqueue(ctx context.Context, req primary.EnqueueRequest) (*primary.EnqueueResponse, error) {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, req)
	}
	return &primary.EnqueueResponse{Entry: &primary.QueueEntry{OrderID: req.OrderID, ProcessingOrder: 1, QueuedAtMin: req.SimMinute}}, nil
}

func (m *mockSchedulingService) ReleaseNext(ctx context.Context, req primary.ReleaseNextRequest) (*primary.ReleaseNextResponse, error) {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, req)
	}
	return &primary.ReleaseNextResponse{}, nil
}

func (m *mockSchedulingService) CheckAndReleaseBatch(ctx context.Context, req primary.BatchCheckRequest) (*primary.BatchCheckResponse, error) {
	if m.batchCheckFn != nil {
		return m.batchCheckFn(ctx, req)
	}
	return &primary.BatchCheckResponse{}, nil
}

func (m *mockSchedulingService) Status(ctx context.Context, req primary.StatusRequest) (*primary.StatusResponse, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, req)
	}
	return &primary.StatusResponse{}, nil
}

func (m *mockSchedulingService) SetHold(ctx context.Context, req primary.SetHoldRequest) error {
	m.lastHoldReq = req
	if m.setHoldFn != nil {
		return m.setHoldFn(ctx, req)
	}
	return nil
}

func (m *mockSchedulingService) ClearHold(ctx context.Context, req primary.ClearHoldRequest) error {
	if m.clearHoldFn != nil {
		return m.clearHoldFn(ctx, req)
	}
	return nil
}

func (m *mockSchedulingService) SetMultipleHolds(ctx context.Context, req primary.SetMultipleHoldsRequest) (*primary.SetMultipleHoldsResponse, error) {
	if m.setMultiFn != nil {
		return m.setMultiFn(ctx, req)
	}
	return &primary.SetMultipleHoldsResponse{Applied: len(req.Holds)}, nil
}

func (m *mockSchedulingService) ClearAll(ctx context.Context, factoryID string) (*primary.ClearAllResponse, error) {
	if m.clearAllFn != nil {
		return m.clearAllFn(ctx, factoryID)
	}
	return &primary.ClearAllResponse{}, nil
}

func TestQueueAdapterEnqueue(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewQueueAdapter(&mockSchedulingService{}, &buf)

	resp, err := adapter.Enqueue(context.Background(), primary.EnqueueRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", OrderID: "ORD-1", SimMinute: 5,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if resp.Skipped {
		t.Error("unexpected skip")
	}
	if !strings.Contains(buf.String(), "ORD-1") {
		t.Errorf("output missing order id: %q", buf.String())
	}
}

func TestQueueAdapterEnqueueSkipped(t *testing.T) {
	var buf bytes.Buffer
	svc := &mockSchedulingService{
		enqueueFn: func(ctx context.Context, req primary.EnqueueRequest) (*primary.EnqueueResponse, error) {
			return &primary.EnqueueResponse{
				Skipped: true,
				Entry:   &primary.QueueEntry{OrderID: req.OrderID, QueuedAtMin: 2},
			}, nil
		},
	}
	adapter := NewQueueAdapter(svc, &buf)

	resp, err := adapter.Enqueue(context.Background(), primary.EnqueueRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", OrderID: "ORD-1", SimMinute: 5,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if !resp.Skipped {
		t.Error("skip not propagated")
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("output missing skip notice: %q", buf.String())
	}
}

func TestQueueAdapterEnqueueError(t *testing.T) {
	svc := &mockSchedulingService{
		enqueueFn: func(ctx context.Context, req primary.EnqueueRequest) (*primary.EnqueueResponse, error) {
			return nil, errors.New("database locked")
		},
	}
	adapter := NewQueueAdapter(svc, &bytes.Buffer{})

	if _, err := adapter.Enqueue(context.Background(), primary.EnqueueRequest{
		Stage: queue.StagePreAcceptance, OrderID: "ORD-1",
	}); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestQueueAdapterCheckBatchReleased(t *testing.T) {
	var buf bytes.Buffer
	svc := &mockSchedulingService{
		batchCheckFn: func(ctx context.Context, req primary.BatchCheckRequest) (*primary.BatchCheckResponse, error) {
			return &primary.BatchCheckResponse{
				BatchReleased: true,
				OrderIDs:      []string{"ORD-2", "ORD-1"},
				HoldCount:     1,
				ReorderCount:  2,
			}, nil
		},
	}
	adapter := NewQueueAdapter(svc, &buf)

	resp, err := adapter.CheckBatch(context.Background(), primary.BatchCheckRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", SimMinute: 30,
	})
	if err != nil {
		t.Fatalf("CheckBatch failed: %v", err)
	}
	if !resp.BatchReleased {
		t.Error("release not propagated")
	}
	out := buf.String()
	for _, want := range []string{"ORD-2", "ORD-1", "held back", "moved 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestQueueAdapterCheckBatchWaiting(t *testing.T) {
	var buf bytes.Buffer
	svc := &mockSchedulingService{
		batchCheckFn: func(ctx context.Context, req primary.BatchCheckRequest) (*primary.BatchCheckResponse, error) {
			return &primary.BatchCheckResponse{Waiting: true, WaitMinutes: 20, Message: "batch accumulating"}, nil
		},
	}
	adapter := NewQueueAdapter(svc, &buf)

	if _, err := adapter.CheckBatch(context.Background(), primary.BatchCheckRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", SimMinute: 10,
	}); err != nil {
		t.Fatalf("CheckBatch failed: %v", err)
	}
	if !strings.Contains(buf.String(), "20 min remaining") {
		t.Errorf("output missing wait time: %q", buf.String())
	}
}

func TestQueueAdapterStatusTable(t *testing.T) {
	var buf bytes.Buffer
	hold := int64(50)
	svc := &mockSchedulingService{
		statusFn: func(ctx context.Context, req primary.StatusRequest) (*primary.StatusResponse, error) {
			return &primary.StatusResponse{
				TotalCount: 2,
				ReadyCount: 1,
				Entries: []*primary.QueueEntry{
					{OrderID: "ORD-1", ProcessingOrder: 1, IsReady: true},
					{OrderID: "ORD-2", ProcessingOrder: 2, HoldUntilMin: &hold, HoldCount: 1},
				},
			}, nil
		},
	}
	adapter := NewQueueAdapter(svc, &buf)

	if _, err := adapter.Status(context.Background(), primary.StatusRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", SimMinute: 10,
	}); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2 pending, 1 ready", "ORD-1", "held until 50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestQueueAdapterStatusEmpty(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewQueueAdapter(&mockSchedulingService{}, &buf)

	if _, err := adapter.Status(context.Background(), primary.StatusRequest{
		Stage: queue.StagePreInspection, FactoryID: "F1",
	}); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(buf.String(), "empty") {
		t.Errorf("output missing empty notice: %q", buf.String())
	}
}

func TestHoldAdapterSetAndClear(t *testing.T) {
	var buf bytes.Buffer
	svc := &mockSchedulingService{}
	adapter := NewHoldAdapter(svc, &buf)
	ctx := context.Background()

	if err := adapter.Set(ctx, primary.SetHoldRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", OrderID: "ORD-1",
		HoldUntilMin: 50, Reason: "material shortage",
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if svc.lastHoldReq.OrderID != "ORD-1" || svc.lastHoldReq.HoldUntilMin != 50 {
		t.Errorf("service received %+v", svc.lastHoldReq)
	}
	if !strings.Contains(buf.String(), "material shortage") {
		t.Errorf("output missing reason: %q", buf.String())
	}

	buf.Reset()
	if err := adapter.Clear(ctx, primary.ClearHoldRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1", OrderID: "ORD-1",
	}); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if !strings.Contains(buf.String(), "cleared") {
		t.Errorf("output missing clear notice: %q", buf.String())
	}
}

func TestHoldAdapterSetMultipleReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	svc := &mockSchedulingService{
		setMultiFn: func(ctx context.Context, req primary.SetMultipleHoldsRequest) (*primary.SetMultipleHoldsResponse, error) {
			return &primary.SetMultipleHoldsResponse{
				Applied: 1,
				Failed:  []primary.HoldFailure{{OrderID: "ORD-2", Reason: "not found"}},
			}, nil
		},
	}
	adapter := NewHoldAdapter(svc, &buf)

	resp, err := adapter.SetMultiple(context.Background(), primary.SetMultipleHoldsRequest{
		Stage: queue.StagePreAcceptance, FactoryID: "F1",
		Holds: []primary.HoldSpec{{OrderID: "ORD-1"}, {OrderID: "ORD-2"}},
	})
	if err != nil {
		t.Fatalf("SetMultiple failed: %v", err)
	}
	if resp.Applied != 1 {
		t.Errorf("Applied = %d, want 1", resp.Applied)
	}
	out := buf.String()
	if !strings.Contains(out, "1 of 2") || !strings.Contains(out, "ORD-2") {
		t.Errorf("output = %q", out)
	}
}
