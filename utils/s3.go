package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores an object under key and returns the key.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, key, contentType string) (string, error)
}

// S3Mirror copies acquired images into a bucket and signs links to them.
type S3Mirror struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3Mirror loads the default AWS credential chain for region.
func NewS3Mirror(ctx context.Context, region, bucket string) (*S3Mirror, error) {
	const op = "utils.NewS3Mirror"

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to load SDK config: %w", op, err)
	}

	client := s3.NewFromConfig(cfg)
	slog.Info("S3 client initialized", slog.String("bucket", bucket), slog.String("region", region))
	return &S3Mirror{bucket: bucket, client: client, presign: s3.NewPresignClient(client)}, nil
}

// Upload uploads body to the bucket and returns the object key
func (m *S3Mirror) Upload(ctx context.Context, body io.Reader, key, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return key, nil
}

// PresignURL generates a presigned GET URL for an object
func (m *S3Mirror) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := m.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return req.URL, nil
}

// MirrorKey is the object key of an image file in the mirror bucket.
func MirrorKey(productID, fileName string) string {
	return fmt.Sprintf("products/%s/%s", productID, fileName)
}
