package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Presigner is the part of the S3 presign client the resolver uses.
// *s3.PresignClient satisfies it.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// s3Resolver presigns bucket object keys into time-limited URLs. Absolute
// URLs pass through untouched, matching how the catalog mixes externally
// hosted images with bucket uploads.
type s3Resolver struct {
	presigner Presigner
	bucket    string
	urlTTL    time.Duration
	logger    zerolog.Logger
}

// NewS3Resolver creates an image resolver backed by an S3-compatible media
// bucket.
func NewS3Resolver(ctx context.Context, bucket, region string, urlTTL time.Duration, logger zerolog.Logger) (ImageResolver, error) {
	logger = logger.With().Str("component", "s3-image-resolver").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Dur("url_ttl", urlTTL).
		Msg("S3 image resolver initialised")

	return &s3Resolver{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		urlTTL:    urlTTL,
		logger:    logger,
	}, nil
}

// NewS3ResolverWithPresigner wires an explicit presigner, used in tests.
func NewS3ResolverWithPresigner(presigner Presigner, bucket string, urlTTL time.Duration, logger zerolog.Logger) ImageResolver {
	return &s3Resolver{
		presigner: presigner,
		bucket:    bucket,
		urlTTL:    urlTTL,
		logger:    logger.With().Str("component", "s3-image-resolver").Logger(),
	}
}

// Resolve presigns an object key, or passes an absolute URL through.
// Presign failures yield an empty URL; the caller carries on without an image.
func (r *s3Resolver) Resolve(ctx context.Context, ref string) string {
	if ref == "" {
		return ""
	}

	if isAbsoluteURL(ref) {
		return ref
	}

	signed, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(ref),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = r.urlTTL
	})
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("bucket", r.bucket).
			Str("key", ref).
			Msg("failed to presign image URL")
		return ""
	}

	return signed.URL
}
