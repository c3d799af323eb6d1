package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/config"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Storage buckets
const (
	RawFootageBucket   = "project-files"
	EditedVideosBucket = "edited-videos"
)

// MaxUploadSize is the largest file accepted for either bucket
const MaxUploadSize int64 = 100 << 20

// ObjectStore uploads files to an S3-compatible store such as Supabase Storage
type ObjectStore struct {
	client     *s3.Client
	publicBase string
	logger     zerolog.Logger
}

// NewObjectStore builds an S3 client from STORAGE_ENDPOINT, STORAGE_REGION,
// STORAGE_ACCESS_KEY_ID, STORAGE_SECRET_ACCESS_KEY and STORAGE_PUBLIC_URL
func NewObjectStore(ctx context.Context, cfg map[string]string) (*ObjectStore, error) {
	endpoint := config.GetString(cfg, "STORAGE_ENDPOINT", "")
	if endpoint == "" {
		return nil, errs.NewConfigError("STORAGE_ENDPOINT", errs.ErrMissingRequiredField)
	}
	publicBase := config.GetString(cfg, "STORAGE_PUBLIC_URL", "")
	if publicBase == "" {
		return nil, errs.NewConfigError("STORAGE_PUBLIC_URL", errs.ErrMissingRequiredField)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.GetString(cfg, "STORAGE_REGION", "us-east-1")),
	}
	if keyID := config.GetString(cfg, "STORAGE_ACCESS_KEY_ID", ""); keyID != "" {
		secret := config.GetString(cfg, "STORAGE_SECRET_ACCESS_KEY", "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errs.NewConfigError("storage", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return NewObjectStoreWithClient(client, publicBase), nil
}

func NewObjectStoreWithClient(client *s3.Client, publicBase string) *ObjectStore {
	return &ObjectStore{
		client:     client,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     log.With().Str("component", "storage").Logger(),
	}
}

// Upload stores body under bucket/key and returns its public URL
func (s *ObjectStore) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error) {
	if size > MaxUploadSize {
		return "", errs.NewMaxBodySizeExceededError(MaxUploadSize)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("upload failed")
		return "", errs.NewServiceUnreachableError("storage", err)
	}

	s.logger.Info().Str("bucket", bucket).Str("key", key).Int64("size", size).Msg("file uploaded")
	return PublicURL(s.publicBase, bucket, key), nil
}

// ObjectKey builds {projectID}/{prefix}-{unixMillis}-{uuid}.{ext}, keeping the original extension
func ObjectKey(projectID uuid.UUID, prefix, filename string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s-%d-%s.%s", projectID, prefix, now.UnixMilli(), uuid.New(), ext)
}

func PublicURL(publicBase, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(publicBase, "/"), bucket, key)
}
