package bowgo

type options struct {
	logger       *Logger
	metrics      MetricsCollector
	directLevels int
}

func defaultOptions() options {
	return options{
		logger:       NoopLogger(),
		metrics:      NoopMetricsCollector{},
		directLevels: -1,
	}
}

// Option configures database construction.
type Option func(*options)

// WithLogger configures structured logging for database operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
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

// WithDirectIndex enables the direct index: for every added entry the
// database records, per tree node levelsUp levels above the leaves, which
// descriptor indices were routed through it. This supports feature
// correspondence lookup between a query and a stored entry at the cost of
// extra memory per entry.
//
// levelsUp = 0 records at the leaves themselves.
func WithDirectIndex(levelsUp int) Option {
	return func(o *options) {
		if levelsUp < 0 {
			levelsUp = 0
		}
		o.directLevels = levelsUp
	}
}
