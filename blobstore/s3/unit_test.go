package s3

import (
	"bytes"
	"context"
	"errors"
	"hash/crc32"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/scenegraph/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func TestS3Store_Open_NotFound(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", WithPrefix("prefix/"))
	ctx := context.Background()

	client.On("HeadObject", ctx, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return aws.ToString(in.Key) == "prefix/missing"
	})).Return(nil, &types.NotFound{})

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	client.AssertExpectations(t)
}

func TestS3Store_Open_Success(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket")
	ctx := context.Background()

	client.On("HeadObject", ctx, mock.Anything).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(5)}, nil)

	b, err := store.Open(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Size())
	assert.NoError(t, b.Close())
}

func TestS3Store_Open_Error(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket")
	ctx := context.Background()

	boom := errors.New("boom")
	client.On("HeadObject", ctx, mock.Anything).Return(nil, boom)

	_, err := store.Open(ctx, "snap")
	assert.ErrorIs(t, err, boom)
}

func TestS3Store_Delete(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", WithPrefix("prefix"))
	ctx := context.Background()

	client.On("DeleteObject", ctx, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "prefix/a" && aws.ToString(in.Bucket) == "bucket"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()
	client.On("DeleteObject", ctx, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "prefix/gone"
	})).Return(nil, &types.NoSuchKey{}).Once()

	assert.NoError(t, store.Delete(ctx, "a"))
	assert.NoError(t, store.Delete(ctx, "gone"))
	client.AssertExpectations(t)
}

func TestS3Store_List(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", WithPrefix("prefix/"))
	ctx := context.Background()

	client.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "prefix/snapshot-" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("prefix/snapshot-b.sgs")},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
	}, nil).Once()
	client.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "token"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("prefix/snapshot-a.sgs")},
		},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	names, err := store.List(ctx, "snapshot-")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshot-a.sgs", "snapshot-b.sgs"}, names)
	client.AssertExpectations(t)
}

func TestS3Blob_ReadAt(t *testing.T) {
	client := new(MockS3Client)
	ctx := context.Background()
	b := &object{client: client, bucket: "bucket", key: "k", size: 10}

	client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Range) == "bytes=2-5"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("cdef")))}, nil).Once()
	client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Range) == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("ij")))}, nil).Once()

	p := make([]byte, 4)
	n, err := b.ReadAt(ctx, p, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "cdef", string(p))

	// Short read at the tail.
	n, err = b.ReadAt(ctx, p, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ij", string(p[:n]))

	_, err = b.ReadAt(ctx, p, 10)
	assert.ErrorIs(t, err, io.EOF)
	client.AssertExpectations(t)
}

func TestS3Blob_ReadRange(t *testing.T) {
	client := new(MockS3Client)
	ctx := context.Background()
	b := &object{client: client, bucket: "bucket", key: "k", size: 10}

	client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Range) == "bytes=5-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("fghij")))}, nil)

	r, err := b.ReadRange(ctx, 5, 100)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "fghij", string(data))

	// Empty ranges never reach the client.
	r, err = b.ReadRange(ctx, 10, 4)
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = b.ReadRange(canceled, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
	client.AssertNumberOfCalls(t, "GetObject", 1)
}

func TestS3Store_Put(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", WithPrefix("scenes"))
	ctx := context.Background()

	data := []byte("hello")
	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "scenes/snap" &&
			aws.ToInt64(in.ContentLength) == int64(len(data)) &&
			aws.ToString(in.ChecksumCRC32C) == checksumCRC32C(crc32.Checksum(data, castagnoli))
	})).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, store.Put(ctx, "snap", data))
	client.AssertExpectations(t)
}

func TestS3Store_Create_SmallObject(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket")
	ctx := context.Background()

	want := "part one, part two"
	var uploaded []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "stream" &&
			aws.ToString(in.ChecksumCRC32C) == checksumCRC32C(crc32.Checksum([]byte(want), castagnoli))
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		uploaded, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	w, err := store.Create(ctx, "stream")
	require.NoError(t, err)
	_, err = w.Write([]byte("part one, "))
	require.NoError(t, err)
	_, err = w.Write([]byte("part two"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Equal(t, want, string(uploaded))
	client.AssertExpectations(t)

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestS3Store_Create_AbortBeforeClose(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket")
	ctx := context.Background()

	w, err := store.Create(ctx, "snap")
	require.NoError(t, err)
	_, err = w.Write([]byte("half a snapshot"))
	require.NoError(t, err)

	u := w.(*snapshotUpload)
	require.NoError(t, u.Abort())
	assert.NoError(t, u.Abort())
	assert.ErrorIs(t, w.Close(), errUploadAborted)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestS3Store_Create_SwitchesToMultipart(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", WithPartSize(manager.MinUploadPartSize))
	ctx := context.Background()

	boom := errors.New("boom")
	client.On("CreateMultipartUpload", mock.Anything, mock.Anything).Return(nil, boom).Maybe()

	w, err := store.Create(ctx, "big")
	require.NoError(t, err)
	u := w.(*snapshotUpload)

	_, err = w.Write(make([]byte, manager.MinUploadPartSize))
	require.NoError(t, err)
	assert.False(t, u.multipart())

	_, err = w.Write([]byte{1})
	require.NoError(t, err)
	assert.True(t, u.multipart())

	assert.Error(t, w.Close())
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestChecksumCRC32C(t *testing.T) {
	// CRC32C("123456789") = 0xE3069283
	assert.Equal(t, "4waSgw==", checksumCRC32C(crc32.Checksum([]byte("123456789"), castagnoli)))
}

func TestNewStore_Options(t *testing.T) {
	s := NewStore(nil, "bucket", WithPrefix("/scenes/"), WithPartSize(-1), WithUploadConcurrency(0))
	assert.Equal(t, "scenes", s.prefix)
	assert.Equal(t, int64(defaultPartSize), s.partSize)
	assert.Equal(t, defaultConcurrency, s.concurrency)
	assert.Equal(t, "scenes/snapshot-1.sgs", s.key("snapshot-1.sgs"))
	assert.Equal(t, "snapshot-1.sgs", s.name("scenes/snapshot-1.sgs"))

	s = NewStore(nil, "bucket", WithPartSize(16<<20), WithUploadConcurrency(8))
	assert.Equal(t, int64(16<<20), s.partSize)
	assert.Equal(t, 8, s.concurrency)
}
