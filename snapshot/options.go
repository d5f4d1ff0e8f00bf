package snapshot

import (
	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/codec"
)

type options struct {
	codec       codec.Codec
	compression Compression
	name        string
	logger      *scenegraph.Logger
	graphOpts   []scenegraph.Option
}

// Option configures Save, Load, Encode and Decode.
type Option func(*options)

// WithCodec sets the document codec used when encoding. Decoding always
// follows the header.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the payload compression. Default: zstd.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithName overrides the generated snapshot name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger used by Load and by the restored graph.
func WithLogger(l *scenegraph.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
			o.graphOpts = append(o.graphOpts, scenegraph.WithLogger(l))
		}
	}
}

// WithGraphOptions passes options to the graph built by Load and Decode.
func WithGraphOptions(opts ...scenegraph.Option) Option {
	return func(o *options) { o.graphOpts = append(o.graphOpts, opts...) }
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:       codec.Default,
		compression: CompressionZSTD,
		logger:      scenegraph.NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
