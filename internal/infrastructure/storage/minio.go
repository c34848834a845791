package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

// MinioStorage implements ObjectStorage on MinIO or any S3 endpoint
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStorage connects and makes sure the bucket exists
func NewMinioStorage(ctx context.Context, cfg *config.Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.StorageBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.StorageBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.StorageBucket, err)
		}
		logger.Info("created storage bucket %s", cfg.StorageBucket)
	}

	publicURL := cfg.StoragePublicURL
	if publicURL == "" {
		publicURL = client.EndpointURL().String() + "/" + cfg.StorageBucket
	}
	return &MinioStorage{
		client:    client,
		bucket:    cfg.StorageBucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *MinioStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStorage) URL(key string) string {
	return s.publicURL + "/" + key
}

// New returns MinIO storage when credentials are configured and an
// in-memory store otherwise
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	if !cfg.StorageEnabled() {
		logger.Warning("object storage credentials are not set, uploads are kept in memory")
		return NewMemoryStorage("/files"), nil
	}
	return NewMinioStorage(ctx, cfg)
}
