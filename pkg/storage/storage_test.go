package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "Uploads/Elements/a.png", Key("Uploads/Elements", "a.png"))
	assert.Equal(t, "a.png", Key("", "a.png"))
	assert.Equal(t, "x/a.png", Key("/x/", "a.png"))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, "/assets/")
	ctx := context.Background()

	res, err := s.Upload(ctx, "Uploads/a.png", strings.NewReader("png"), "image/png", 3)
	require.NoError(t, err)
	assert.Equal(t, "/assets/Uploads/a.png", res.PublicURL())
	assert.Equal(t, int64(3), res.Size)

	data, err := os.ReadFile(filepath.Join(root, "Uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, s.Delete(ctx, "Uploads/a.png"))
	_, err = os.Stat(filepath.Join(root, "Uploads", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, s.Delete(ctx, "Uploads/a.png"))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "/assets")
	_, err := s.Upload(context.Background(), "../evil.png", strings.NewReader("x"), "image/png", 1)
	assert.Error(t, err)
	assert.Error(t, s.Delete(context.Background(), "../evil.png"))
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestS3ClientUpload(t *testing.T) {
	api := new(mockS3)
	c := &S3Client{client: api, bucket: "media", basePath: "elements/", cdnURL: "https://cdn.example.com"}

	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "media" && *in.Key == "elements/Uploads/a.png" && string(body) == "png"
	})).Return(&s3.PutObjectOutput{}, nil)

	res, err := c.Upload(context.Background(), "Uploads/a.png", strings.NewReader("png"), "image/png", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.amazonaws.com/elements/Uploads/a.png", res.URL)
	assert.Equal(t, "https://cdn.example.com/elements/Uploads/a.png", res.PublicURL())
	api.AssertExpectations(t)
}

func TestS3ClientDeleteAndErrors(t *testing.T) {
	api := new(mockS3)
	c := &S3Client{client: api, bucket: "media", basePath: "elements/", endpoint: "https://r2.example.com"}

	api.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "elements/Uploads/a.png"
	})).Return(&s3.DeleteObjectOutput{}, nil)
	require.NoError(t, c.Delete(context.Background(), "Uploads/a.png"))

	api.On("PutObject", mock.Anything, mock.Anything).Return((*s3.PutObjectOutput)(nil), errors.New("boom"))
	_, err := c.Upload(context.Background(), "Uploads/b.png", strings.NewReader("x"), "image/png", 1)
	assert.ErrorContains(t, err, "s3 upload failed")

	assert.Equal(t, "https://r2.example.com/media/k", c.objectURL("k"))
}

func TestNewS3ClientRequiresBucket(t *testing.T) {
	_, err := NewS3Client(S3Config{Region: "auto"})
	assert.Error(t, err)
}
