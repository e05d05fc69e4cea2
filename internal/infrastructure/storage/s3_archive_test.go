package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dukaandost/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeObjectAPI struct {
	puts        map[string][]byte
	contentType string
	putErr      error
	headErr     error
	created     []string
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	f.contentType = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeObjectAPI) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(in.Bucket))
	return &s3.CreateBucketOutput{}, nil
}

func validStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "dukaan-charts",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3ChartArchive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ChartArchive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ChartArchive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.AccessKey = ""
		_, err := NewS3ChartArchive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.SecretKey = ""
		_, err := NewS3ChartArchive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config uses default prefix", func(t *testing.T) {
		a, err := NewS3ChartArchive(validStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "dukaan-charts", a.Bucket())
		assert.Equal(t, "charts/sales.png", a.ObjectKey("/tmp/out/sales.png"))
	})

	t.Run("custom prefix gains a trailing slash", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.KeyPrefix = "reports"
		a, err := NewS3ChartArchive(cfg)
		require.NoError(t, err)
		assert.Equal(t, "reports/sales.png", a.ObjectKey("sales.png"))
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		want     string
	}{
		{"empty uses default", "", false, DefaultEndpoint},
		{"adds http", "minio:9000", false, "http://minio:9000"},
		{"adds https", "minio:9000", true, "https://minio:9000"},
		{"keeps scheme", "https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3ChartArchive_Archive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	chart := filepath.Join(dir, "sales-insights-20261015-101500.png")
	require.NoError(t, os.WriteFile(chart, []byte("png-bytes"), 0o644))

	t.Run("uploads the chart under the prefix", func(t *testing.T) {
		api := &fakeObjectAPI{}
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(api), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)

		location, err := a.Archive(ctx, chart)
		require.NoError(t, err)
		assert.Equal(t, "s3://dukaan-charts/charts/sales-insights-20261015-101500.png", location)
		assert.Equal(t, []byte("png-bytes"), api.puts["dukaan-charts/charts/sales-insights-20261015-101500.png"])
		assert.Equal(t, "image/png", api.contentType)
	})

	t.Run("upload failure is returned", func(t *testing.T) {
		api := &fakeObjectAPI{putErr: errors.New("connection refused")}
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(api))
		require.NoError(t, err)

		_, err = a.Archive(ctx, chart)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload chart")
	})

	t.Run("missing file", func(t *testing.T) {
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(&fakeObjectAPI{}))
		require.NoError(t, err)

		_, err = a.Archive(ctx, filepath.Join(dir, "nope.png"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open chart")
	})

	t.Run("empty path", func(t *testing.T) {
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(&fakeObjectAPI{}))
		require.NoError(t, err)

		_, err = a.Archive(ctx, "")
		require.Error(t, err)
	})
}

func TestS3ChartArchive_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket is left alone", func(t *testing.T) {
		api := &fakeObjectAPI{}
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(api))
		require.NoError(t, err)

		require.NoError(t, a.EnsureBucket(ctx))
		assert.Empty(t, api.created)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		api := &fakeObjectAPI{headErr: &types.NotFound{}}
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(api))
		require.NoError(t, err)

		require.NoError(t, a.EnsureBucket(ctx))
		assert.Equal(t, []string{"dukaan-charts"}, api.created)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		api := &fakeObjectAPI{headErr: errors.New("access denied")}
		a, err := NewS3ChartArchive(validStorageConfig(), withObjectAPI(api))
		require.NoError(t, err)

		err = a.EnsureBucket(ctx)
		require.Error(t, err)
		assert.Empty(t, api.created)
	})
}
