// Package storage keeps copies of rendered sales charts outside the host.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dukaandost/backend/internal/domain/report"
	"github.com/dukaandost/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Defaults for S3-compatible endpoints
const (
	DefaultEndpoint  = "http://localhost:9000"
	DefaultRegion    = "us-east-1"
	DefaultKeyPrefix = "charts/"
	pngContentType   = "image/png"
)

var _ report.ChartArchive = (*S3ChartArchive)(nil)

// objectAPI is the part of *s3.Client the archive calls
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3ChartArchive uploads chart PNGs to an S3-compatible bucket
// (AWS S3, MinIO, RustFS).
type S3ChartArchive struct {
	client    objectAPI
	bucket    string
	keyPrefix string
	logger    *zap.Logger
}

// S3ChartArchiveOption is a functional option for configuring S3ChartArchive
type S3ChartArchiveOption func(*S3ChartArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3ChartArchiveOption {
	return func(a *S3ChartArchive) {
		a.logger = logger
	}
}

// withObjectAPI swaps the S3 client, used by tests
func withObjectAPI(client objectAPI) S3ChartArchiveOption {
	return func(a *S3ChartArchive) {
		a.client = client
	}
}

// NewS3ChartArchive creates an archive from configuration
func NewS3ChartArchive(cfg *config.StorageConfig, opts ...S3ChartArchiveOption) (*S3ChartArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	a := &S3ChartArchive{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (a *S3ChartArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "NotFound") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	a.logger.Info("Creating chart bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads the file at localPath and returns its s3:// location
func (a *S3ChartArchive) Archive(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", errors.New("chart path is required")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open chart: %w", err)
	}
	defer f.Close()

	key := a.ObjectKey(localPath)
	start := time.Now()
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(pngContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload chart: %w", err)
	}

	a.logger.Debug("Chart uploaded",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Duration("elapsed", time.Since(start)),
	)
	return "s3://" + a.bucket + "/" + key, nil
}

// ObjectKey maps a local chart file to its key in the bucket
func (a *S3ChartArchive) ObjectKey(localPath string) string {
	return path.Join(a.keyPrefix, filepath.Base(localPath))
}

// Bucket returns the bucket name
func (a *S3ChartArchive) Bucket() string {
	return a.bucket
}
