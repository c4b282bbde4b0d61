package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/refab/internal/adapters/sqlite"
	"github.com/example/refab/internal/core/queue"
	"github.com/example/refab/internal/ports/secondary"
)

func TestQueueRepository_InsertAndGetPending(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 10, 30)

	got, err := repo.GetPending(ctx, queue.StagePreAcceptance, "F1", "O1")
	if err != nil {
		t.Fatalf("GetPending failed: %v", err)
	}
	if got.OrderID != "O1" || got.QueuedAtMin != 10 || got.ReleaseAfterMin != 30 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.ReleasedAtMin != nil {
		t.Error("fresh entry must be pending")
	}
	if got.ProcessingOrder != 1 {
		t.Errorf("expected processing order 1, got %d", got.ProcessingOrder)
	}
}

func TestQueueRepository_DuplicatePendingRejected(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)

	err := repo.Insert(ctx, &secondary.QueueEntryRecord{
		OrderID:         "O1",
		Stage:           queue.StagePreAcceptance,
		FactoryID:       "F1",
		ProcessingOrder: 99,
	})
	if !errors.Is(err, secondary.ErrDuplicatePending) {
		t.Errorf("expected ErrDuplicatePending, got %v", err)
	}

	entries, err := repo.ListPending(ctx, queue.StagePreAcceptance, "F1")
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("queue length changed on duplicate enqueue: %d", len(entries))
	}
}

func TestQueueRepository_SameOrderOtherStageAllowed(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)
	seedEntry(t, repo, queue.StagePreInspection, "F1", "O1", 0, 0)
}

func TestQueueRepository_ListPendingOrder(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 5, 0)
	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O2", 3, 0)
	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O3", 9, 0)

	entries, err := repo.ListPending(ctx, queue.StagePreAcceptance, "F1")
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	want := []string{"O1", "O2", "O3"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.OrderID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], e.OrderID)
		}
	}
}

func TestQueueRepository_ReleaseBatchAtomic(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)
	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O2", 0, 0)

	releases := []secondary.DispatchAssignment{
		{OrderID: "O2", DispatchSeq: 1},
		{OrderID: "O1", DispatchSeq: 2},
	}
	if err := repo.ReleaseBatch(ctx, queue.StagePreAcceptance, "F1", releases, 42, nil); err != nil {
		t.Fatalf("ReleaseBatch failed: %v", err)
	}

	entries, err := repo.ListPending(ctx, queue.StagePreAcceptance, "F1")
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no pending entries after release, got %d", len(entries))
	}

	var releasedAt, dispatchSeq int64
	err = testDB.QueryRow("SELECT released_at_min, dispatch_seq FROM queue_entries WHERE order_id = 'O2'").Scan(&releasedAt, &dispatchSeq)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if releasedAt != 42 || dispatchSeq != 1 {
		t.Errorf("expected released at 42 with dispatch seq 1, got %d/%d", releasedAt, dispatchSeq)
	}
}

func TestQueueRepository_ReleaseBatchMissingOrderRollsBack(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)

	releases := []secondary.DispatchAssignment{
		{OrderID: "O1", DispatchSeq: 1},
		{OrderID: "GHOST", DispatchSeq: 2},
	}
	err := repo.ReleaseBatch(ctx, queue.StagePreAcceptance, "F1", releases, 42, nil)
	if err == nil {
		t.Fatal("expected error releasing a ghost order")
	}

	// The whole batch must roll back: O1 stays pending
	got, err := repo.GetPending(ctx, queue.StagePreAcceptance, "F1", "O1")
	if err != nil {
		t.Fatalf("GetPending failed: %v", err)
	}
	if got.ReleasedAtMin != nil {
		t.Error("partial release state left after failed batch")
	}
}

func TestQueueRepository_ReleaseIsTerminal(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)

	releases := []secondary.DispatchAssignment{{OrderID: "O1", DispatchSeq: 1}}
	if err := repo.ReleaseBatch(ctx, queue.StagePreAcceptance, "F1", releases, 10, nil); err != nil {
		t.Fatalf("ReleaseBatch failed: %v", err)
	}

	// A second release cycle must not find or rewrite the entry
	err := repo.ReleaseBatch(ctx, queue.StagePreAcceptance, "F1", releases, 99, nil)
	if err == nil {
		t.Fatal("expected error: released entry is no longer pending")
	}

	var releasedAt int64
	if err := testDB.QueryRow("SELECT released_at_min FROM queue_entries WHERE order_id = 'O1'").Scan(&releasedAt); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if releasedAt != 10 {
		t.Errorf("release minute changed from 10 to %d", releasedAt)
	}
}

func TestQueueRepository_SetAndClearHold(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreInspection, "F1", "O1", 0, 0)

	if err := repo.SetHold(ctx, queue.StagePreInspection, "F1", "O1", 50, "capacity", 30); err != nil {
		t.Fatalf("SetHold failed: %v", err)
	}
	got, _ := repo.GetPending(ctx, queue.StagePreInspection, "F1", "O1")
	if got.HoldUntilMin == nil || *got.HoldUntilMin != 50 {
		t.Errorf("expected hold until 50, got %+v", got.HoldUntilMin)
	}
	if got.HoldReason != "capacity" || got.HoldCount != 1 {
		t.Errorf("unexpected hold fields: reason=%q count=%d", got.HoldReason, got.HoldCount)
	}

	// a second hold overwrites and bumps the counter
	if err := repo.SetHold(ctx, queue.StagePreInspection, "F1", "O1", 80, "rework", 55); err != nil {
		t.Fatalf("second SetHold failed: %v", err)
	}
	got, _ = repo.GetPending(ctx, queue.StagePreInspection, "F1", "O1")
	if *got.HoldUntilMin != 80 || got.HoldCount != 2 {
		t.Errorf("expected overwrite with count 2, got until=%d count=%d", *got.HoldUntilMin, got.HoldCount)
	}

	if err := repo.ClearHold(ctx, queue.StagePreInspection, "F1", "O1"); err != nil {
		t.Fatalf("ClearHold failed: %v", err)
	}
	got, _ = repo.GetPending(ctx, queue.StagePreInspection, "F1", "O1")
	if got.HoldUntilMin != nil || got.HoldReason != "" || got.HoldSetAtMin != nil {
		t.Errorf("hold fields not cleared: %+v", got)
	}
	if got.HoldCount != 2 {
		t.Errorf("ClearHold must preserve hold count, got %d", got.HoldCount)
	}
}

func TestQueueRepository_SetHoldNotPending(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	err := repo.SetHold(ctx, queue.StagePreInspection, "F1", "GHOST", 50, "capacity", 30)
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueueRepository_DeleteReleasedThenReenqueue(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)
	releases := []secondary.DispatchAssignment{{OrderID: "O1", DispatchSeq: 1}}
	if err := repo.ReleaseBatch(ctx, queue.StagePreAcceptance, "F1", releases, 5, nil); err != nil {
		t.Fatalf("ReleaseBatch failed: %v", err)
	}

	if err := repo.DeleteReleased(ctx, queue.StagePreAcceptance, "F1", "O1"); err != nil {
		t.Fatalf("DeleteReleased failed: %v", err)
	}

	// fresh entry gets a higher processing order than the retired one had
	fresh := seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 20, 0)
	if fresh.ProcessingOrder != 1 {
		// the released entry was deleted, so numbering restarts from max of
		// remaining rows; with none left this is 1
		t.Errorf("expected processing order 1 after retire, got %d", fresh.ProcessingOrder)
	}
}

func TestQueueRepository_DeleteAllPending(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewQueueRepository(testDB)
	ctx := context.Background()

	seedEntry(t, repo, queue.StagePreAcceptance, "F1", "O1", 0, 0)
	seedEntry(t, repo, queue.StagePreInspection, "F1", "O2", 0, 0)
	seedEntry(t, repo, queue.StagePreAcceptance, "F2", "O3", 0, 0)

	n, err := repo.DeleteAllPending(ctx, "F1")
	if err != nil {
		t.Fatalf("DeleteAllPending failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 dropped entries, got %d", n)
	}

	// other factories untouched
	if _, err := repo.GetPending(ctx, queue.StagePreAcceptance, "F2", "O3"); err != nil {
		t.Errorf("other factory's entry was dropped: %v", err)
	}
}
