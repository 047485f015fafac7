// Package awss3 stores listing images in any S3-compatible service through the AWS SDK.
package awss3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/storage"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
)

type Options struct {
	Region       string
	BaseEndpoint string // empty means AWS itself
	AccessKey    string
	SecretKey    string
	Bucket       string
	PublicURL    string
}

// objectAPI is the part of *s3.Client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Store struct {
	api     objectAPI
	bucket  string
	baseURL string
	logger  *logger.Logger
}

func NewStore(ctx context.Context, opts Options, log *logger.Logger) (*Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	log.Info("Initialized S3 content store", "region", opts.Region, "endpoint", opts.BaseEndpoint, "bucket", opts.Bucket)
	return newStore(client, opts, log), nil
}

func newStore(api objectAPI, opts Options, log *logger.Logger) *Store {
	return &Store{
		api:     api,
		bucket:  opts.Bucket,
		baseURL: publicBase(opts),
		logger:  log.Named("S3Store"),
	}
}

func publicBase(opts Options) string {
	switch {
	case opts.PublicURL != "":
		return opts.PublicURL
	case opts.BaseEndpoint != "":
		return storage.ObjectURL(opts.BaseEndpoint, opts.Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
}

func (s *Store) Put(ctx context.Context, data []byte, originalFilename string) (string, error) {
	key := storage.NewObjectKey(originalFilename)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
		Metadata:      map[string]string{"original-filename": originalFilename},
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	s.logger.Debug("object stored", "key", key, "size", len(data))
	return key, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to head object %s: %w", key, err)
}

func (s *Store) URLFor(key string) string {
	return storage.ObjectURL(s.baseURL, key)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
