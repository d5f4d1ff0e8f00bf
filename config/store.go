package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/scenegraph/blobstore"
	"github.com/hupe1980/scenegraph/blobstore/minio"
	"github.com/hupe1980/scenegraph/blobstore/s3"
)

func (s SnapshotConfig) validate() error {
	switch strings.ToLower(s.Store) {
	case "", "memory":
	case "local":
		if s.Path == "" {
			return fmt.Errorf("%w: local snapshot store needs a path", ErrInvalid)
		}
	case "minio":
		if s.Endpoint == "" || s.Bucket == "" {
			return fmt.Errorf("%w: minio snapshot store needs endpoint and bucket", ErrInvalid)
		}
	case "s3":
		if s.Bucket == "" {
			return fmt.Errorf("%w: s3 snapshot store needs a bucket", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: snapshot store %q", ErrInvalid, s.Store)
	}
	return nil
}

// NewStore opens the configured snapshot store.
func (s SnapshotConfig) NewStore(ctx context.Context) (blobstore.BlobStore, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(s.Store) {
	case "local":
		return blobstore.NewLocalStore(s.Path), nil
	case "minio":
		store, err := minio.NewFromConfig(minio.Config{
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			UseSSL:    s.UseSSL,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		opts := []s3.Option{s3.WithPrefix(s.Prefix)}
		if s.Region != "" {
			opts = append(opts, s3.WithRegion(s.Region))
		}
		if s.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(s.Endpoint))
		}
		return s3.New(ctx, s.Bucket, opts...)
	default:
		return blobstore.NewMemoryStore(), nil
	}
}
