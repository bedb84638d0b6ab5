package source

import (
	"context"

	"budgetreview/internal/core"
)

// Ports for inbound budget sources.
type (
	// Reader loads the full budget table. Implementations return a
	// *loader.DataSourceError for structural problems.
	Reader interface {
		ReadTable(ctx context.Context) (core.Table, error)
		// Describe names the source for logs and error pages.
		Describe() string
	}

	// Writer persists a normalized table as the new current snapshot.
	Writer interface {
		ReplaceTable(ctx context.Context, t core.Table, sourceName string) (version int64, err error)
	}
)
