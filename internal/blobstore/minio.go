package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const presignExpiry = time.Hour

// Store is the narrow interface to the external blob store collaborator.
type Store interface {
	// Put stores an object and returns the generated key.
	Put(ctx context.Context, folder, name, contentType string, size int64, body io.Reader) (string, error)

	// GetURL returns a time-limited download URL for an object.
	GetURL(ctx context.Context, key string) (string, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error
}

// Options configures the MinIO-backed blob store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type minioStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

var _ Store = (*minioStore)(nil)

// NewMinioStore creates a blob store over a MinIO (S3-compatible) endpoint,
// creating the bucket if it does not exist.
func NewMinioStore(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: make bucket: %w", err)
		}
		logger.Info("Created blob store bucket", zap.String("bucket", opts.Bucket))
	}

	return &minioStore{client: client, bucket: opts.Bucket, logger: logger}, nil
}

func (s *minioStore) Put(ctx context.Context, folder, name, contentType string, size int64, body io.Reader) (string, error) {
	key := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)
	if folder != "" {
		key = folder + "/" + key
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: put object: %w", err)
	}

	s.logger.Debug("Stored object", zap.String("key", key), zap.Int64("size", size))
	return key, nil
}

func (s *minioStore) GetURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio: presign get: %w", err)
	}
	return u.String(), nil
}

func (s *minioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio: remove object: %w", err)
	}
	return nil
}
