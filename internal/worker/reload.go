// Package worker reacts to dataset updates announced by other processes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"budgetreview/internal/amqp"
	"budgetreview/internal/dataset"
)

// Reloader is the part of dataset.Store the worker drives.
type Reloader interface {
	Invalidate(reason string) int64
	Snapshot(ctx context.Context) (dataset.Snapshot, error)
}

// ReloadWorker invalidates the local store when a new snapshot has been
// imported elsewhere and warms it again so the next request is fast.
type ReloadWorker struct {
	store  Reloader
	logger *slog.Logger

	mu   sync.Mutex
	seen int64
}

func NewReloadWorker(store Reloader, logger *slog.Logger) *ReloadWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadWorker{store: store, logger: logger}
}

// HandleDatasetUpdated processes one dataset.updated message. Versions at
// or below the last one handled are acknowledged without reloading.
func (w *ReloadWorker) HandleDatasetUpdated(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error {
	w.mu.Lock()
	if msg.Version > 0 && msg.Version <= w.seen {
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Skipping stale dataset update",
			"version", msg.Version,
			"last_seen", w.seen)
		return nil
	}
	if msg.Version > w.seen {
		w.seen = msg.Version
	}
	w.mu.Unlock()

	local := w.store.Invalidate(fmt.Sprintf("import v%d from %s", msg.Version, msg.Source))
	w.logger.InfoContext(ctx, "Dataset update received",
		"import_version", msg.Version,
		"source", msg.Source,
		"local_version", local)

	if _, err := w.store.Snapshot(ctx); err != nil {
		// The store stays invalidated; the next request retries the load.
		w.logger.WarnContext(ctx, "Reload after dataset update failed", "error", err)
	}
	return nil
}

// LastSeen returns the highest import version handled.
func (w *ReloadWorker) LastSeen() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seen
}
