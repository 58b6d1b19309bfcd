package blobstore

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
	appconfig "github.com/gmarinz/viewtube/internal/platform/config"
	"github.com/google/uuid"
)

// Upload describes a single file to be stored
type Upload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Store is the blob-storage collaborator consumed by the modules.
// Upload persists the file under the given key prefix and returns its public URL
type Store interface {
	Upload(ctx context.Context, keyPrefix string, up Upload) (string, error)
}

var _ Store = (*S3Store)(nil)

// S3Store stores uploads in an S3-compatible bucket (AWS or MinIO)
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, cfg *appconfig.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.S3.Bucket,
		publicBaseURL: strings.TrimRight(cfg.S3.PublicBaseURL, "/"),
	}, nil
}

// Upload puts the object under a random, date-partitioned key and returns its public URL
func (s *S3Store) Upload(ctx context.Context, keyPrefix string, up Upload) (string, error) {
	key := randomStorageKey(keyPrefix, up.Filename)

	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   up.Body,
	}
	if up.ContentType != "" {
		input.ContentType = &up.ContentType
	}
	if up.Size > 0 {
		input.ContentLength = &up.Size
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key), nil
}

// randomStorageKey partitions keys by date so buckets stay browsable,
// and keeps the original file extension for content sniffing by CDNs
func randomStorageKey(prefix, filename string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s%s",
		prefix, d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(path.Ext(filename)))
}
