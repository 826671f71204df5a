// Package storage resolves recipe image references into URLs the client can
// load: absolute URLs pass through, S3 object keys are presigned.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Presigner is satisfied by *s3.PresignClient.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ImageResolver turns stored image references into client URLs.
type ImageResolver struct {
	defaultURL string
	bucket     string
	presigner  Presigner
	ttl        time.Duration
	logger     *zap.Logger
}

// NewImageResolver creates a resolver. A nil presigner disables S3 keys and
// they resolve to the default image.
func NewImageResolver(defaultURL, bucket string, presigner Presigner, ttl time.Duration, logger *zap.Logger) *ImageResolver {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ImageResolver{
		defaultURL: defaultURL,
		bucket:     bucket,
		presigner:  presigner,
		ttl:        ttl,
		logger:     logger,
	}
}

// NewS3ImageResolver presigns keys in bucket with the given client.
func NewS3ImageResolver(client *s3.Client, defaultURL, bucket string, ttl time.Duration, logger *zap.Logger) *ImageResolver {
	return NewImageResolver(defaultURL, bucket, s3.NewPresignClient(client), ttl, logger)
}

// Resolve returns the URL for raw. Blank references and presign failures
// yield the default image.
func (r *ImageResolver) Resolve(ctx context.Context, raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return r.defaultURL
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"), strings.HasPrefix(raw, "/"):
		return raw
	}

	bucket, key := r.bucket, raw
	if rest, ok := strings.CutPrefix(raw, "s3://"); ok {
		b, k, found := strings.Cut(rest, "/")
		if !found || k == "" {
			return r.defaultURL
		}
		bucket, key = b, k
	}
	if r.presigner == nil || bucket == "" {
		return r.defaultURL
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		r.logger.Warn("failed to presign image url",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return r.defaultURL
	}
	return req.URL
}
