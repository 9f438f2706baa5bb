package workfs

import (
	"log/slog"
	"time"
)

type options struct {
	logger          *Logger
	metrics         MetricsCollector
	debounceWindow  time.Duration
	loadConcurrency int
}

// Option configures FileManager construction.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithDebounceWindow overrides the notifier's debounce window.
// Zero disables debouncing entirely (every notification is evaluated).
//
// The default window is a heuristic; see DefaultDebounceWindow.
func WithDebounceWindow(window time.Duration) Option {
	return func(o *options) {
		o.debounceWindow = window
	}
}

// WithLoadConcurrency bounds the parallel backend reads performed while
// loading the mirror at startup. Defaults to 8.
func WithLoadConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.loadConcurrency = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:          NoopLogger(),
		metrics:         NoopMetricsCollector{},
		debounceWindow:  DefaultDebounceWindow,
		loadConcurrency: 8,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
