// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("scenes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	name, err := snapshot.Save(ctx, store, graph)
//
// # Features
//
//   - Range reads for partial fetches
//   - Snapshots up to one part are sent with a single PutObject carrying a
//     CRC32C checksum; larger ones switch to a multipart upload
//     (WithPartSize, WithUploadConcurrency)
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
