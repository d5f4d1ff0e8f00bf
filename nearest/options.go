package nearest

import (
	"runtime"

	"github.com/hupe1980/scenegraph"
)

type options struct {
	backend     Backend
	metrics     scenegraph.MetricsCollector
	parallelism int
}

// Option configures a finder.
type Option func(*options)

// WithBackend selects the spatial structure used by the finder.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithMetricsCollector records every query with mc.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc scenegraph.MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = scenegraph.NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithParallelism bounds the number of goroutines used by batch queries.
// Values below one fall back to GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		backend: BackendKDTree,
		metrics: scenegraph.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.parallelism < 1 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	return o
}
