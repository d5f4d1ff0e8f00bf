package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash"
	"hash/crc32"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	defaultPartSize    = 8 << 20
	defaultConcurrency = 3
)

var (
	castagnoli = crc32.MakeTable(crc32.Castagnoli)

	errUploadAborted = errors.New("s3: upload aborted")
)

// checksumCRC32C formats sum the way S3 expects x-amz-checksum-crc32c:
// base64 of the big-endian bytes.
func checksumCRC32C(sum uint32) string {
	return base64.StdEncoding.EncodeToString(binary.BigEndian.AppendUint32(nil, sum))
}

// snapshotUpload writes one object. Snapshots usually fit in a single part,
// so writes are buffered and sent with one checksummed PutObject on Close.
// Once the buffer grows past the part size the upload switches to a
// multipart upload fed through a pipe, and later writes stream straight to
// the uploader.
//
// A snapshotUpload is not safe for concurrent use.
type snapshotUpload struct {
	ctx   context.Context
	store *Store
	key   string

	buf bytes.Buffer
	crc hash.Hash32

	pw   *io.PipeWriter
	done chan error

	closed bool
	err    error
}

func newSnapshotUpload(ctx context.Context, s *Store, key string) *snapshotUpload {
	return &snapshotUpload{
		ctx:   ctx,
		store: s,
		key:   key,
		crc:   crc32.New(castagnoli),
	}
}

// multipart reports whether the upload has left the buffered path.
func (u *snapshotUpload) multipart() bool { return u.pw != nil }

func (u *snapshotUpload) Write(p []byte) (int, error) {
	if u.closed {
		return 0, io.ErrClosedPipe
	}
	if u.multipart() {
		return u.pw.Write(p)
	}

	u.buf.Write(p)
	u.crc.Write(p)
	if int64(u.buf.Len()) > u.store.partSize {
		u.startMultipart()
	}
	return len(p), nil
}

// startMultipart hands the buffered head and everything written afterwards
// to a manager.Uploader running in the background.
func (u *snapshotUpload) startMultipart() {
	pr, pw := io.Pipe()
	u.pw = pw
	u.done = make(chan error, 1)

	head := bytes.NewReader(u.buf.Bytes())
	uploader := manager.NewUploader(u.store.client, func(m *manager.Uploader) {
		m.PartSize = u.store.partSize
		m.Concurrency = u.store.concurrency
	})
	input := &s3.PutObjectInput{
		Bucket:            aws.String(u.store.bucket),
		Key:               aws.String(u.key),
		Body:              io.MultiReader(head, pr),
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc32c,
	}

	go func() {
		_, err := uploader.Upload(u.ctx, input)
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
}

// Sync is a no-op. Nothing is visible until Close.
func (u *snapshotUpload) Sync() error { return nil }

// Close commits the object. Calling it again returns the first result.
func (u *snapshotUpload) Close() error {
	if u.closed {
		return u.err
	}
	u.closed = true

	if !u.multipart() {
		u.err = u.store.put(u.ctx, u.key, u.buf.Bytes(), u.crc.Sum32())
		return u.err
	}
	_ = u.pw.Close()
	u.err = <-u.done
	return u.err
}

// Abort drops the upload. A multipart upload that already started is
// aborted by the uploader, so no parts are left behind.
func (u *snapshotUpload) Abort() error {
	if u.closed {
		return nil
	}
	u.closed = true
	u.err = errUploadAborted

	if u.multipart() {
		_ = u.pw.CloseWithError(errUploadAborted)
		<-u.done
	}
	u.buf.Reset()
	return nil
}
