package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	id, err := r.SaveExport(ctx, ExportRecord{
		ConfigVersion: "3.2",
		Document:      `{"metadata":{}}`,
		FlatLines:     "I1.4 1 10-03-2024 10-03-2024",
		WorkEntries:   1,
		GrandTotal:    300,
	})
	if err != nil {
		t.Fatalf("SaveExport: %v", err)
	}

	rec, err := r.GetExport(ctx, id)
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if rec.SyncStatus != SyncPending {
		t.Errorf("new record status = %q, want %q", rec.SyncStatus, SyncPending)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on save")
	}
	if rec.GrandTotal != 300 {
		t.Errorf("GrandTotal = %d, want 300", rec.GrandTotal)
	}

	if _, err := r.GetExport(ctx, 999); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("GetExport(999) = %v, want ErrExportNotFound", err)
	}
}

func TestMemoryRepositoryPendingAndMarks(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := r.SaveExport(ctx, ExportRecord{ConfigVersion: "3.2"})
		if err != nil {
			t.Fatalf("SaveExport: %v", err)
		}
		ids = append(ids, id)
	}

	pending, err := r.GetPendingSyncExports(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExports: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}

	if err := r.MarkSynced(ctx, ids[0]); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := r.MarkSyncError(ctx, ids[1], "upload failed"); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, _ = r.GetPendingSyncExports(ctx, 10)
	if len(pending) != 1 || pending[0].ID != ids[2] {
		t.Errorf("pending after marks = %+v, want only %d", pending, ids[2])
	}

	synced, _ := r.GetExport(ctx, ids[0])
	if synced.SyncStatus != SyncDone || synced.SyncedAt == nil {
		t.Errorf("synced record = %+v, want done status with timestamp", synced)
	}
	failed, _ := r.GetExport(ctx, ids[1])
	if failed.SyncStatus != SyncError || failed.SyncError != "upload failed" {
		t.Errorf("failed record = %+v, want error status with cause", failed)
	}

	counts, err := r.CountExports(ctx)
	if err != nil {
		t.Fatalf("CountExports: %v", err)
	}
	if counts[SyncPending] != 1 || counts[SyncDone] != 1 || counts[SyncError] != 1 {
		t.Errorf("counts = %v, want one of each status", counts)
	}

	if err := r.MarkSynced(ctx, 999); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("MarkSynced(999) = %v, want ErrExportNotFound", err)
	}
}

func TestMemoryRepositoryPendingLimit(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	for i := 0; i < 5; i++ {
		if _, err := r.SaveExport(ctx, ExportRecord{}); err != nil {
			t.Fatalf("SaveExport: %v", err)
		}
	}
	pending, err := r.GetPendingSyncExports(ctx, 2)
	if err != nil {
		t.Fatalf("GetPendingSyncExports: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want limit of 2", len(pending))
	}
}
