// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"clan-missions/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// ObjectStore stores public media and returns its URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// ErrStorageDisabled is returned by the store used when no bucket is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

type disabledStore struct{}

func (disabledStore) Put(context.Context, string, string, []byte) (string, error) {
	return "", ErrStorageDisabled
}

// NewObjectStore returns R2 storage, or a store that rejects every upload when no bucket is set.
func NewObjectStore(ctx context.Context, cfg config.R2Config) (ObjectStore, error) {
	if cfg.Bucket == "" {
		log.Warn("⚠️  R2_BUCKET_NAME not set, uploads and certificate images are disabled")
		return disabledStore{}, nil
	}
	return NewR2Storage(ctx, cfg)
}

// R2Storage uploads to a Cloudflare R2 bucket through the S3 API.
type R2Storage struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
}

func NewR2Storage(ctx context.Context, cfg config.R2Config) (*R2Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("R2_BUCKET_NAME is not set")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	cdnBaseURL := cfg.CDNBaseURL
	if cdnBaseURL == "" {
		cdnBaseURL = endpoint + "/" + cfg.Bucket
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Storage{
		client:     client,
		bucket:     cfg.Bucket,
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
	}, nil
}

// Put uploads body under key and returns the public CDN URL.
func (s *R2Storage) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.cdnBaseURL, key), nil
}
