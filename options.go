package scgo

import (
	"log/slog"
)

type options struct {
	metricsCollector   MetricsCollector
	logger             *Logger
	maxConcurrentReads int
	ioLimitBytesPerSec int64
}

// Option configures connection behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &scgo.BasicMetricsCollector{}
//	conn, _ := scgo.Open(ctx, st, scgo.WithMetricsCollector(metrics))
//	// ... use conn ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := scgo.NewJSONLogger(slog.LevelInfo)
//	conn, _ := scgo.Open(ctx, st, scgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMaxConcurrentReads bounds the number of in-flight component reads
// during materialize and append. Values <= 0 use the default.
func WithMaxConcurrentReads(n int) Option {
	return func(o *options) {
		o.maxConcurrentReads = n
	}
}

// WithIOLimit caps read throughput in bytes per second. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimitBytesPerSec = bytesPerSec
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
