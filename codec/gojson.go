package codec

import gojson "github.com/goccy/go-json"

// GoJSON is the default codec, backed by github.com/goccy/go-json. It writes
// plain JSON without HTML escaping, so node names round trip byte for byte
// and the JSON codec can still read its output.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) {
	return gojson.MarshalWithOption(v, gojson.DisableHTMLEscape())
}

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json". The name is written into snapshot headers.
func (GoJSON) Name() string { return "go-json" }
