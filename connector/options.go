package connector

import "github.com/hupe1980/scenegraph/nearest"

type options struct {
	finderOpts []nearest.Option
}

// Option configures a connector.
type Option func(*options)

// WithFinderOptions passes options to the nearest parent finder built on
// every ConnectChildren call.
func WithFinderOptions(opts ...nearest.Option) Option {
	return func(o *options) {
		o.finderOpts = append(o.finderOpts, opts...)
	}
}

func applyOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
