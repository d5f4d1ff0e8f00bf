package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/blobstore"
	"github.com/hupe1980/scenegraph/codec"
)

const (
	magic = "SGS1"

	// NamePrefix and NameSuffix frame every snapshot blob name.
	NamePrefix = "snapshot-"
	NameSuffix = ".sgs"

	maxPayloadSize = 1 << 30
)

var (
	// ErrCorrupt is returned when a snapshot cannot be decoded.
	ErrCorrupt = errors.New("snapshot: corrupt")

	// ErrNoSnapshots is returned by Latest when the store holds none.
	ErrNoSnapshots = errors.New("snapshot: no snapshots")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Header describes an encoded snapshot.
//
// Layout (little endian):
//
//	magic       [4]byte "SGS1"
//	codecLen    uint8
//	codec       [codecLen]byte
//	compression uint8
//	size        uint64  uncompressed payload length
//	checksum    uint32  CRC32C of the uncompressed payload
//	payload     [...]byte
type Header struct {
	Codec       string
	Compression Compression
	Size        uint64
	Checksum    uint32
}

// Encode writes g to w.
func Encode(w io.Writer, g *scenegraph.Graph, optFns ...Option) error {
	o := applyOptions(optFns)

	payload, err := o.codec.Marshal(g.Export())
	if err != nil {
		return fmt.Errorf("snapshot: encode document: %w", err)
	}
	body, applied, err := compress(payload, o.compression)
	if err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}

	name := o.codec.Name()
	if len(name) > 255 {
		return fmt.Errorf("snapshot: codec name %q too long", name)
	}

	var hdr bytes.Buffer
	hdr.WriteString(magic)
	hdr.WriteByte(byte(len(name)))
	hdr.WriteString(name)
	hdr.WriteByte(byte(applied))
	_ = binary.Write(&hdr, binary.LittleEndian, uint64(len(payload)))
	_ = binary.Write(&hdr, binary.LittleEndian, crc32.Checksum(payload, castagnoli))

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// ReadHeader parses the header at the start of data and returns it with the
// remaining payload bytes.
func ReadHeader(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < len(magic)+1 || string(data[:len(magic)]) != magic {
		return h, nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	data = data[len(magic):]

	n := int(data[0])
	data = data[1:]
	if len(data) < n+1+8+4 {
		return h, nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	h.Codec = string(data[:n])
	data = data[n:]

	h.Compression = Compression(data[0])
	h.Size = binary.LittleEndian.Uint64(data[1:9])
	h.Checksum = binary.LittleEndian.Uint32(data[9:13])
	if h.Size > maxPayloadSize {
		return h, nil, fmt.Errorf("%w: payload size %d", ErrCorrupt, h.Size)
	}
	return h, data[13:], nil
}

// Decode rebuilds a graph from an encoded snapshot. The codec named in the
// header is used regardless of WithCodec.
func Decode(data []byte, optFns ...Option) (*scenegraph.Graph, error) {
	o := applyOptions(optFns)

	h, body, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	c, err := codec.Lookup(h.Codec)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	payload, err := decompress(body, h.Compression, h.Size)
	if err != nil {
		return nil, err
	}
	if crc32.Checksum(payload, castagnoli) != h.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var doc scenegraph.Document
	if err := c.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return scenegraph.Import(doc, o.graphOpts...)
}

// NewName returns a fresh snapshot name. Names sort in creation order.
func NewName() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return NamePrefix + id.String() + NameSuffix, nil
}

// Save writes g to store and returns the blob name.
func Save(ctx context.Context, store blobstore.BlobStore, g *scenegraph.Graph, optFns ...Option) (string, error) {
	o := applyOptions(optFns)

	name := o.name
	if name == "" {
		var err error
		if name, err = NewName(); err != nil {
			return "", err
		}
	}

	err := save(ctx, store, name, g, optFns)
	g.Logger().LogSnapshot(ctx, name, err)
	if err != nil {
		return "", err
	}
	return name, nil
}

func save(ctx context.Context, store blobstore.BlobStore, name string, g *scenegraph.Graph, optFns []Option) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", name, err)
	}
	if err := Encode(w, g, optFns...); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
		}
		return err
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		return fmt.Errorf("snapshot: sync %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", name, err)
	}
	return nil
}

// Load restores the graph stored under name.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*scenegraph.Graph, error) {
	o := applyOptions(optFns)

	g, err := load(ctx, store, name, optFns)
	nodes := 0
	if g != nil {
		nodes = g.NumNodes()
	}
	o.logger.LogRestore(ctx, name, nodes, err)
	return g, err
}

func load(ctx context.Context, store blobstore.BlobStore, name string, optFns []Option) (*scenegraph.Graph, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	return Decode(data, optFns...)
}

// List returns the snapshot names in store, oldest first.
func List(ctx context.Context, store blobstore.BlobStore) ([]string, error) {
	names, err := store.List(ctx, NamePrefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, NameSuffix) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Latest returns the name of the most recent snapshot.
func Latest(ctx context.Context, store blobstore.BlobStore) (string, error) {
	names, err := List(ctx, store)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoSnapshots
	}
	return names[len(names)-1], nil
}
