// Package memory is an in-process upload target used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "ashaworks/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	batches []ports.Batch
}

var _ ports.ExportUploader = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendExport stores the batch and returns a synthetic row reference.
func (s *Store) AppendExport(_ context.Context, b ports.Batch) (string, error) {
	if len(b.Lines) == 0 {
		return "", fmt.Errorf("export %d has no lines", b.ExportID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, b)
	return fmt.Sprintf("mem:%d", len(s.batches)), nil
}

// Batches returns a copy of everything uploaded so far.
func (s *Store) Batches() []ports.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Batch(nil), s.batches...)
}
