package scenegraph

import "time"

type options struct {
	layers           []LayerID
	logger           *Logger
	metricsCollector MetricsCollector
	correctionEvery  time.Duration
}

// Option configures Graph construction.
type Option func(*options)

// WithLayers restricts the layer registry to the given layers. Unknown or
// duplicate IDs are ignored. Without this option every known layer is
// registered.
func WithLayers(layers ...LayerID) Option {
	return func(o *options) {
		o.layers = layers
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example:
//
//	g := scenegraph.New(scenegraph.WithLogger(scenegraph.NewJSONLogger(slog.LevelDebug)))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &scenegraph.BasicMetricsCollector{}
//	g := scenegraph.New(scenegraph.WithMetricsCollector(metrics))
//	// ... insert nodes and edges ...
//	stats := metrics.Stats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCorrectionLogInterval sets the minimum interval between warnings about
// reversed inter-layer edges. Corrections are always counted; only the log
// line is throttled. Zero logs every correction.
func WithCorrectionLogInterval(d time.Duration) Option {
	return func(o *options) {
		o.correctionEvery = d
	}
}

func defaultOptions() options {
	return options{
		layers:           KnownLayers(),
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		correctionEvery:  time.Second,
	}
}
