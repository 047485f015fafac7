// Package s3 is the MinIO-backed content store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/jrybusiness/stylerental-backend/internal/adapter/storage"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // optional, e.g. a CDN in front of the bucket
}

type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *logger.Logger
}

func NewStore(ctx context.Context, opts Options, log *logger.Logger) (*Store, error) {
	log.Info("Initializing MinIO content store", "endpoint", opts.Endpoint, "bucket", opts.Bucket, "use_ssl", opts.UseSSL)

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", opts.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		log.Info("MinIO bucket created", "bucket", opts.Bucket)
	}

	return &Store{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: baseURL(opts, client.EndpointURL().String()),
		logger:  log.Named("MinIOStore"),
	}, nil
}

func baseURL(opts Options, endpointURL string) string {
	if opts.PublicURL != "" {
		return opts.PublicURL
	}
	return storage.ObjectURL(endpointURL, opts.Bucket)
}

func (s *Store) Put(ctx context.Context, data []byte, originalFilename string) (string, error) {
	key := storage.NewObjectKey(originalFilename)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  http.DetectContentType(data),
		UserMetadata: map[string]string{"original-filename": originalFilename},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Debug("object stored", "key", info.Key, "etag", info.ETag, "size", info.Size)
	return key, nil
}

// Delete removes key. S3 semantics make removing a missing key a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", key, err)
}

func (s *Store) URLFor(key string) string {
	return storage.ObjectURL(s.baseURL, key)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
