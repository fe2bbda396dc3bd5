package campuscontent

import "log/slog"

// NoopRecorder is a no-operation implementation of Recorder
// Useful when metrics are not exported or for testing
type NoopRecorder struct{}

// NewNoopRecorder creates a new no-operation recorder
func NewNoopRecorder() Recorder {
	return &NoopRecorder{}
}

// CounterFailed does nothing
func (n *NoopRecorder) CounterFailed(kind Kind, field string) {}

// FallbackServed does nothing
func (n *NoopRecorder) FallbackServed(kind Kind, mode FallbackMode) {}

// AssetOrphaned does nothing
func (n *NoopRecorder) AssetOrphaned(kind Kind) {}

// LoggingRecorder is a recorder that logs signals but takes no other action
// Useful for development and debugging
type LoggingRecorder struct {
	logger *slog.Logger
}

// NewLoggingRecorder creates a new logging recorder
func NewLoggingRecorder(logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingRecorder{logger: logger}
}

// CounterFailed logs the failed increment
func (l *LoggingRecorder) CounterFailed(kind Kind, field string) {
	l.logger.Debug("counter increment dropped", "kind", kind, "field", field)
}

// FallbackServed logs the fallback read
func (l *LoggingRecorder) FallbackServed(kind Kind, mode FallbackMode) {
	l.logger.Debug("fallback served", "kind", kind, "mode", mode)
}

// AssetOrphaned logs the orphaned asset
func (l *LoggingRecorder) AssetOrphaned(kind Kind) {
	l.logger.Debug("asset orphaned", "kind", kind)
}
