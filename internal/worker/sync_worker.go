// Package worker uploads archived exports to the reporting spreadsheet,
// driven by AMQP messages with a periodic pending scan as backup.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ashaworks/internal/amqp"
	"ashaworks/internal/log"
	"ashaworks/internal/sheets"
	"ashaworks/internal/storage"
)

// Archive is the slice of the export archive the worker needs.
type Archive interface {
	GetExport(ctx context.Context, id int64) (storage.ExportRecord, error)
	GetPendingSyncExports(ctx context.Context, limit int) ([]storage.PendingExport, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64, cause string) error
}

type SyncWorker struct {
	archive   Archive
	uploader  sheets.ExportUploader
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(archive Archive, uploader sheets.ExportUploader, batchSize int, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		archive:   archive,
		uploader:  uploader,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage uploads the export named by one AMQP message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExportSyncMessage) error {
	w.logger.InfoContext(ctx, "processing sync message", log.FieldExportID, msg.ID)
	return w.ProcessExport(ctx, msg.ID)
}

// ProcessExport uploads one archived export and records the outcome. An
// already-synced export is skipped without error so duplicate messages are
// harmless.
func (w *SyncWorker) ProcessExport(ctx context.Context, id int64) error {
	rec, err := w.archive.GetExport(ctx, id)
	if err != nil {
		return fmt.Errorf("get export from archive: %w", err)
	}

	if rec.SyncStatus == storage.SyncDone {
		w.logger.InfoContext(ctx, "export already synced, skipping", log.FieldExportID, id)
		return nil
	}

	batch := sheets.Batch{
		ExportID:      rec.ID,
		GeneratedAt:   rec.CreatedAt,
		ConfigVersion: rec.ConfigVersion,
		Lines:         splitLines(rec.FlatLines),
	}
	if len(batch.Lines) == 0 {
		// Nothing to upload; mark done so it stops cycling through the queue.
		w.logger.WarnContext(ctx, "export has no flat lines", log.FieldExportID, id)
		return w.archive.MarkSynced(ctx, id)
	}

	ref, err := w.uploader.AppendExport(ctx, batch)
	if err != nil {
		if markErr := w.archive.MarkSyncError(ctx, id, err.Error()); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to record sync error",
				log.FieldExportID, id, log.FieldError, markErr.Error())
		}
		return fmt.Errorf("upload export %d: %w", id, err)
	}

	if err := w.archive.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark export synced: %w", err)
	}

	w.logger.InfoContext(ctx, "export uploaded",
		log.FieldExportID, id,
		log.FieldSheetsRef, ref,
		"lines", len(batch.Lines))
	return nil
}

// ProcessPendingExports uploads exports the queue missed. Backup for lost
// AMQP messages.
func (w *SyncWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.archive.GetPendingSyncExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending exports", "count", len(pending))

	var failed int
	for _, p := range pending {
		if err := w.ProcessExport(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "pending export failed",
				log.FieldExportID, p.ID, log.FieldError, err.Error())
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending exports failed", failed, len(pending))
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at boot, retrying
// briefly so a slow upload target does not strand exports.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	const attempts = 3
	var err error
	for i := 1; i <= attempts; i++ {
		if err = w.ProcessPendingExports(ctx); err == nil {
			return nil
		}
		w.logger.WarnContext(ctx, "startup sync attempt failed",
			"attempt", i, log.FieldError, err.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * 2 * time.Second):
		}
	}
	return fmt.Errorf("startup sync check: %w", err)
}

func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
