package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps the export archive in process memory. Used for
// tests and for running without a database file.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]ExportRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, records: make(map[int64]ExportRecord)}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) SaveExport(ctx context.Context, rec ExportRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.nextID
	r.nextID++
	rec.CreatedAt = time.Now().UTC()
	rec.SyncStatus = SyncPending
	r.records[rec.ID] = rec
	return rec.ID, nil
}

func (r *MemoryRepository) GetExport(ctx context.Context, id int64) (ExportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ExportRecord{}, ErrExportNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) GetPendingSyncExports(ctx context.Context, limit int) ([]PendingExport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PendingExport
	for _, rec := range r.records {
		if rec.SyncStatus == SyncPending {
			out = append(out, PendingExport{ID: rec.ID, CreatedAt: rec.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) MarkSynced(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrExportNotFound
	}
	now := time.Now().UTC()
	rec.SyncStatus = SyncDone
	rec.SyncError = ""
	rec.SyncedAt = &now
	r.records[id] = rec
	return nil
}

func (r *MemoryRepository) MarkSyncError(ctx context.Context, id int64, cause string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrExportNotFound
	}
	rec.SyncStatus = SyncError
	rec.SyncError = cause
	r.records[id] = rec
	return nil
}

func (r *MemoryRepository) CountExports(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, rec := range r.records {
		out[rec.SyncStatus]++
	}
	return out, nil
}
