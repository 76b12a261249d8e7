// Package storage archives generated export documents so the sync worker
// can upload them later even if the uploader is down at generation time.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrExportNotFound = errors.New("export not found")

// Sync states for archived exports.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// ExportRecord is one archived export document.
type ExportRecord struct {
	ID             int64
	CreatedAt      time.Time
	ConfigVersion  string
	Document       string
	FlatLines      string
	WorkEntries    int
	MonthlyEntries int
	GrandTotal     int64
	SyncStatus     string
	SyncError      string
	SyncedAt       *time.Time
}

// PendingExport is the minimal identity needed for sync queue messages.
type PendingExport struct {
	ID        int64
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveExport archives a generated document and returns its id.
func (r *SQLiteRepository) SaveExport(ctx context.Context, rec ExportRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (config_version, document, flat_lines, work_entries, monthly_entries, grand_total, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ConfigVersion, rec.Document, rec.FlatLines,
		rec.WorkEntries, rec.MonthlyEntries, rec.GrandTotal, SyncPending)
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export insert id: %w", err)
	}
	return id, nil
}

// GetExport retrieves one archived export by id.
func (r *SQLiteRepository) GetExport(ctx context.Context, id int64) (ExportRecord, error) {
	var rec ExportRecord
	var syncedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, config_version, document, flat_lines,
		       work_entries, monthly_entries, grand_total, sync_status, sync_error, synced_at
		FROM exports WHERE id = ?`, id).Scan(
		&rec.ID, &rec.CreatedAt, &rec.ConfigVersion, &rec.Document, &rec.FlatLines,
		&rec.WorkEntries, &rec.MonthlyEntries, &rec.GrandTotal,
		&rec.SyncStatus, &rec.SyncError, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, ErrExportNotFound
	}
	if err != nil {
		return ExportRecord{}, fmt.Errorf("get export %d: %w", id, err)
	}
	if syncedAt.Valid {
		rec.SyncedAt = &syncedAt.Time
	}
	return rec, nil
}

// GetPendingSyncExports lists exports not yet uploaded, oldest first.
func (r *SQLiteRepository) GetPendingSyncExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM exports
		WHERE sync_status = ?
		ORDER BY created_at ASC
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending exports: %w", err)
	}
	return out, nil
}

// MarkSynced records a successful upload.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE exports SET sync_status = ?, sync_error = '', synced_at = CURRENT_TIMESTAMP
		WHERE id = ?`, SyncDone, id)
	if err != nil {
		return fmt.Errorf("mark export synced: %w", err)
	}
	return checkAffected(res, id)
}

// MarkSyncError records a failed upload; the export stays retrievable and
// can be retried by resetting it to pending.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, cause string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE exports SET sync_status = ?, sync_error = ? WHERE id = ?`,
		SyncError, cause, id)
	if err != nil {
		return fmt.Errorf("mark export sync error: %w", err)
	}
	return checkAffected(res, id)
}

// CountExports returns totals by sync status for the readiness endpoint.
func (r *SQLiteRepository) CountExports(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sync_status, COUNT(*) FROM exports GROUP BY sync_status`)
	if err != nil {
		return nil, fmt.Errorf("count exports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan export count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func checkAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("export %d: %w", id, ErrExportNotFound)
	}
	return nil
}
