package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/blobstore"
	"github.com/hupe1980/scenegraph/codec"
	"github.com/hupe1980/scenegraph/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t testing.TB) *scenegraph.Graph {
	t.Helper()
	rng := testutil.NewRNG(7)
	g := scenegraph.New()

	places, err := testutil.PopulateLayer(g, scenegraph.LayerPlaces, 1, rng.UniformPositions(40, 20))
	require.NoError(t, err)
	objects, err := testutil.PopulateLayer(g, scenegraph.LayerObjects, 1, rng.UniformPositions(120, 20))
	require.NoError(t, err)
	_, err = testutil.PopulateLayer(g, scenegraph.LayerRooms, 1, rng.UniformPositions(4, 20))
	require.NoError(t, err)

	for i := 1; i < len(places); i++ {
		g.AddEdge(scenegraph.NewEdge(scenegraph.LayerPlaces, places[i-1], scenegraph.LayerPlaces, places[i]))
	}
	for i, id := range objects {
		g.AddEdge(scenegraph.NewEdge(scenegraph.LayerPlaces, places[i%len(places)], scenegraph.LayerObjects, id))
	}
	// Submitted child first; stored reversed.
	g.AddEdge(scenegraph.NewEdge(scenegraph.LayerPlaces, places[0], scenegraph.LayerRooms, 1))
	return g
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	g := sampleGraph(t)
	want := g.Export()

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
			t.Run(c.Name()+"/"+comp.String(), func(t *testing.T) {
				var buf bytes.Buffer
				require.NoError(t, Encode(&buf, g, WithCodec(c), WithCompression(comp)))

				h, _, err := ReadHeader(buf.Bytes())
				require.NoError(t, err)
				assert.Equal(t, c.Name(), h.Codec)
				assert.Equal(t, comp, h.Compression)

				restored, err := Decode(buf.Bytes())
				require.NoError(t, err)
				if diff := cmp.Diff(want, restored.Export()); diff != "" {
					t.Fatalf("restored graph mismatch (-want +got):\n%s", diff)
				}
				assert.Equal(t, g.NextInterLayerEdgeID(), restored.NextInterLayerEdgeID())
			})
		}
	}
}

func TestDecode_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleGraph(t), WithCompression(CompressionNone)))
	data := buf.Bytes()

	t.Run("BadMagic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Decode(data[:8])
		assert.ErrorIs(t, err, ErrCorrupt)
		_, err = Decode(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("FlippedPayload", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-2] ^= 0xff
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("UnknownCodec", func(t *testing.T) {
		bad := bytes.Clone(data)
		// "go-json" becomes "go-jsoX".
		bad[len(magic)+1+6] = 'X'
		_, err := Decode(bad)
		assert.ErrorIs(t, err, codec.ErrUnknownCodec)
	})
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	g := sampleGraph(t)

	name, err := Save(ctx, store, g, WithCompression(CompressionLZ4))
	require.NoError(t, err)
	assert.Regexp(t, `^snapshot-[0-9a-f-]{36}\.sgs$`, name)

	restored, err := Load(ctx, store, name)
	require.NoError(t, err)
	assert.Equal(t, g.NumNodes(), restored.NumNodes())
	if diff := cmp.Diff(g.Export(), restored.Export()); diff != "" {
		t.Fatalf("restored graph mismatch (-want +got):\n%s", diff)
	}

	// The restored graph keeps issuing edge IDs where the original stopped.
	next := g.AddEdge(scenegraph.NewEdge(scenegraph.LayerRooms, 2, scenegraph.LayerPlaces, 3))
	again := restored.AddEdge(scenegraph.NewEdge(scenegraph.LayerRooms, 2, scenegraph.LayerPlaces, 3))
	assert.Equal(t, next.ID, again.ID)

	_, err = Load(ctx, store, "snapshot-missing.sgs")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestSaveLoad_LocalStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	g := sampleGraph(t)

	name, err := Save(ctx, store, g, WithName("snapshot-fixed.sgs"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot-fixed.sgs", name)

	restored, err := Load(ctx, store, name)
	require.NoError(t, err)
	assert.Equal(t, g.NumInterLayerEdges(), restored.NumInterLayerEdges())
}

func TestListLatest(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := Latest(ctx, store)
	assert.ErrorIs(t, err, ErrNoSnapshots)

	g := sampleGraph(t)
	var names []string
	for i := 0; i < 3; i++ {
		name, err := Save(ctx, store, g)
		require.NoError(t, err)
		names = append(names, name)
	}
	require.NoError(t, store.Put(ctx, "snapshot-notes.txt", []byte("ignored")))
	require.NoError(t, store.Put(ctx, "other.sgs", []byte("ignored")))

	listed, err := List(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, names, listed)

	latest, err := Latest(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, names[2], latest)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want Compression
	}{
		{"", CompressionZSTD},
		{"zstd", CompressionZSTD},
		{"LZ4", CompressionLZ4},
		{"none", CompressionNone},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		if tt.in != "" {
			assert.Equal(t, tt.want.String(), got.String())
		}
	}

	_, err := ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestCompress_Incompressible(t *testing.T) {
	rng := testutil.NewRNG(3)
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(rng.Intn(256))
	}
	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		out, applied, err := compress(data, c)
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, applied)
		assert.Equal(t, data, out)
	}
}

func BenchmarkEncode(b *testing.B) {
	g := sampleGraph(b)
	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		b.Run(comp.String(), func(b *testing.B) {
			var buf bytes.Buffer
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if err := Encode(&buf, g, WithCompression(comp)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
