package campuscontent

import (
	"context"
	"log/slog"
)

// CounterCoordinator applies best-effort atomic increments. Failures are
// logged and recorded, never returned as errors.
type CounterCoordinator struct {
	store    Store
	logger   *slog.Logger
	recorder Recorder
}

// NewCounterCoordinator creates a coordinator over store.
func NewCounterCoordinator(store Store, logger *slog.Logger, recorder Recorder) *CounterCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	return &CounterCoordinator{store: store, logger: logger, recorder: recorder}
}

// Increment adds one to field of the document at (collection, id).
func (c *CounterCoordinator) Increment(ctx context.Context, kind Kind, collection, id, field string) Outcome {
	if err := c.store.Increment(ctx, collection, id, field, 1); err != nil {
		c.logger.Warn("counter increment failed",
			"kind", kind,
			"collection", collection,
			"id", id,
			"field", field,
			"error", err,
		)
		c.recorder.CounterFailed(kind, field)
		return Outcome{Err: err}
	}
	return Outcome{}
}
