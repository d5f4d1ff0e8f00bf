// Package snapshot persists scene graphs to a blobstore.BlobStore.
//
// A snapshot is a small binary header followed by the codec-encoded
// scenegraph.Document, optionally compressed with zstd or LZ4. Node
// attributes, edge IDs and the inter-layer edge counter survive a round trip,
// so a restored graph issues the same edge IDs the original would have.
//
//	name, err := snapshot.Save(ctx, store, g, snapshot.WithCompression(snapshot.CompressionLZ4))
//	g2, err := snapshot.Load(ctx, store, name)
package snapshot
