// Package services orchestrates generation: aggregation, document building,
// archiving, and handoff to the async sync pipeline.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ashaworks/internal/aggregate"
	"ashaworks/internal/amqp"
	"ashaworks/internal/core"
	"ashaworks/internal/export"
	"ashaworks/internal/log"
	"ashaworks/internal/session"
	"ashaworks/internal/storage"
)

// ExportArchive is the storage port for archived exports. Satisfied by both
// the SQLite and the in-memory repositories.
type ExportArchive interface {
	SaveExport(ctx context.Context, rec storage.ExportRecord) (int64, error)
	GetExport(ctx context.Context, id int64) (storage.ExportRecord, error)
	GetPendingSyncExports(ctx context.Context, limit int) ([]storage.PendingExport, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64, cause string) error
	CountExports(ctx context.Context) (map[string]int64, error)
	Close() error
}

// GenerateResult is everything one generate run produces.
type GenerateResult struct {
	ExportID            int64
	Document            export.Document
	FlatLines           []string
	Summary             []string
	Warnings            []string
	DailyTotal          int64
	MonthlyPackageTotal int64
	StatePackageTotal   int64
	GrandTotal          int64
	Stats               export.Stats
}

// ExportService runs aggregation and archives the result. The AMQP client
// is optional; without it exports are still archived and picked up by the
// worker's periodic scan.
type ExportService struct {
	archive    ExportArchive
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewExportService(archive ExportArchive, amqpClient *amqp.Client, logger *log.Logger) *ExportService {
	return &ExportService{
		archive:    archive,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentExport),
	}
}

// Generate aggregates the current selection, archives the document, and
// announces it for upload. A publish failure never fails the operation;
// the periodic scan will find the pending export.
func (s *ExportService) Generate(ctx context.Context, cat *core.Catalog, sess *session.Session, now time.Time, clientInfo string) (GenerateResult, error) {
	res := aggregate.Run(cat, sess, now)
	doc := export.NewDocument(cat, res, now, clientInfo)

	lines, err := doc.FlatLines()
	if err != nil {
		return GenerateResult{}, fmt.Errorf("render flat lines: %w", err)
	}

	out := GenerateResult{
		Document:            doc,
		FlatLines:           lines,
		Summary:             export.Summary(cat, sess),
		Warnings:            res.Warnings,
		DailyTotal:          res.DailyTotal(),
		MonthlyPackageTotal: aggregate.MonthlyPackageTotal(cat, res.Monthly),
		StatePackageTotal:   aggregate.StatePackageTotal(res.Monthly),
		Stats:               doc.Stats(),
	}
	out.GrandTotal = out.DailyTotal + out.MonthlyPackageTotal + out.StatePackageTotal

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("marshal export document: %w", err)
	}

	// Archiving failures degrade: the user still gets the generated
	// document, it just will not reach the sync pipeline.
	id, err := s.archive.SaveExport(ctx, storage.ExportRecord{
		ConfigVersion:  cat.Version,
		Document:       string(docJSON),
		FlatLines:      strings.Join(lines, "\n"),
		WorkEntries:    len(doc.WorkData),
		MonthlyEntries: len(doc.MonthlyData),
		GrandTotal:     out.GrandTotal,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to archive export", log.FieldError, err.Error())
		return out, nil
	}
	out.ExportID = id

	s.logger.InfoContext(ctx, "export generated",
		log.FieldExportID, id,
		"work_entries", len(doc.WorkData),
		"monthly_entries", len(doc.MonthlyData),
		"warnings", len(res.Warnings),
		"grand_total", out.GrandTotal)

	if err := s.publishSyncMessage(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sync message",
			log.FieldExportID, id, log.FieldError, err.Error())
	}

	return out, nil
}

// GetExport fetches an archived export.
func (s *ExportService) GetExport(ctx context.Context, id int64) (storage.ExportRecord, error) {
	return s.archive.GetExport(ctx, id)
}

// ArchiveCounts reports archive totals by sync status.
func (s *ExportService) ArchiveCounts(ctx context.Context) (map[string]int64, error) {
	return s.archive.CountExports(ctx)
}

func (s *ExportService) publishSyncMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishExportSync(ctx, id)
}

// Close releases the archive and the AMQP connection.
func (s *ExportService) Close() error {
	var errs []error

	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close export service: %v", errs)
	}
	return nil
}
