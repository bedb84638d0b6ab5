// Package services orchestrates budget imports across sources, storage and
// the message broker.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetreview/internal/source"
)

// Publisher announces a stored snapshot version.
type Publisher interface {
	PublishDatasetUpdated(ctx context.Context, version int64, source string) error
}

// ImportResult summarizes one import.
type ImportResult struct {
	Version   int64
	Source    string
	Periods   int
	Items     int
	Published bool
}

// ImportService copies a budget from any source into the snapshot store.
type ImportService struct {
	store     source.Writer
	publisher Publisher
}

// NewImportService creates the service. publisher may be nil.
func NewImportService(store source.Writer, publisher Publisher) *ImportService {
	return &ImportService{store: store, publisher: publisher}
}

var ErrEmptyImport = errors.New("source contains no line items")

// Import reads from r, stores the table and publishes the new version.
// Publishing is best effort; a failure is logged and reported in the
// result, never returned.
func (s *ImportService) Import(ctx context.Context, r source.Reader) (ImportResult, error) {
	name := r.Describe()
	t, err := r.ReadTable(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(t.Items) == 0 {
		return ImportResult{}, fmt.Errorf("import %s: %w", name, ErrEmptyImport)
	}

	version, err := s.store.ReplaceTable(ctx, t, name)
	if err != nil {
		return ImportResult{}, fmt.Errorf("store snapshot: %w", err)
	}

	res := ImportResult{
		Version: version,
		Source:  name,
		Periods: len(t.Periods),
		Items:   len(t.Items),
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping dataset update message")
		return res, nil
	}
	if err := s.publisher.PublishDatasetUpdated(ctx, version, name); err != nil {
		slog.ErrorContext(ctx, "Failed to publish dataset update",
			"version", version, "error", err)
		return res, nil
	}
	res.Published = true
	return res, nil
}
