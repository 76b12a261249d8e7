// Package google uploads archived exports to a Google Sheets spreadsheet
// using service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ashaworks/internal/config"
	"ashaworks/internal/log"
	ports "ashaworks/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.ExportUploader = (*Client)(nil)

// New creates an upload client from configuration. Credentials come from
// the service account JSON (inline or file); GOOGLE_APPLICATION_CREDENTIALS
// is honored as a fallback.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}
	sheetName := cfg.GoogleSheetName
	if sheetName == "" {
		sheetName = "Exports"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func newSheetsService(ctx context.Context, cfg *config.Config) (*gsheet.Service, error) {
	accountJSON := strings.TrimSpace(cfg.GoogleServiceAccountJSON)
	accountFile := strings.TrimSpace(cfg.GoogleServiceAccountFile)
	if accountJSON == "" && accountFile == "" {
		accountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	var err error
	switch {
	case accountJSON != "":
		credentials = []byte(accountJSON)
	case accountFile != "":
		credentials, err = os.ReadFile(accountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendExport writes one row per flat line: export id, generation time,
// catalog version, line. Rows for one export land contiguously.
func (c *Client) AppendExport(ctx context.Context, b ports.Batch) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(b.Lines) == 0 {
		return "", fmt.Errorf("export %d has no lines", b.ExportID)
	}

	values := make([][]any, 0, len(b.Lines))
	generated := b.GeneratedAt.UTC().Format("2006-01-02 15:04:05")
	for _, line := range b.Lines {
		values = append(values, []any{b.ExportID, generated, b.ConfigVersion, line})
	}

	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng,
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "uploaded export",
		log.FieldExportID, b.ExportID,
		log.FieldSheetsRef, ref,
		"rows", len(values))
	return ref, nil
}
