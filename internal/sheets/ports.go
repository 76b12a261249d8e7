// Package sheets defines the outbound port for uploading archived exports
// to the reporting spreadsheet.
package sheets

import (
	"context"
	"time"
)

// Batch is one archived export rendered as flat lines, ready for upload.
type Batch struct {
	ExportID      int64
	GeneratedAt   time.Time
	ConfigVersion string
	Lines         []string
}

// ExportUploader writes a batch to the upload target and returns a
// target-specific reference for the written rows.
type ExportUploader interface {
	AppendExport(ctx context.Context, b Batch) (ref string, err error)
}
