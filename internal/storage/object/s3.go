package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// SignedURLTTL applies to both PUT and GET URLs.
const SignedURLTTL = 15 * time.Minute

// S3Gateway is the thin capability over the object store: it signs PUT/GET
// URLs, downloads raw bytes and uploads pipeline output. The SDK client is
// expensive to construct, so it is built lazily exactly once and shared by
// every call; the gateway itself is handed around as a long-lived dependency.
type S3Gateway struct {
	region   string
	endpoint string
	logger   zerolog.Logger

	once      sync.Once
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	initErr   error
}

type GatewayConfig struct {
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible stores (MinIO).
	Endpoint string
	Logger   zerolog.Logger
}

func NewS3Gateway(cfg GatewayConfig) *S3Gateway {
	return &S3Gateway{
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		logger:   cfg.Logger.With().Str("component", "object_storage").Logger(),
	}
}

func (g *S3Gateway) init(ctx context.Context) error {
	g.once.Do(func() {
		cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(g.region))
		if err != nil {
			g.initErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		g.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if g.endpoint != "" {
				o.BaseEndpoint = aws.String(g.endpoint)
				o.UsePathStyle = true
			}
		})
		g.presigner = s3.NewPresignClient(g.client)
		g.uploader = manager.NewUploader(g.client)

		g.logger.Info().Str("region", g.region).Msg("s3 client initialized")
	})
	return g.initErr
}

// SignPut returns a fresh presigned PUT URL; URLs are never cached, every
// call carries its own expiry.
func (g *S3Gateway) SignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if err := g.init(ctx); err != nil {
		g.logger.Error().Err(err).Msg("client init failed")
		return "", ErrConfiguration
	}

	req, err := g.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		g.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("presign put failed")
		return "", classifySignError(err)
	}
	return req.URL, nil
}

func (g *S3Gateway) SignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if err := g.init(ctx); err != nil {
		g.logger.Error().Err(err).Msg("client init failed")
		return "", ErrConfiguration
	}

	req, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		g.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("presign get failed")
		return "", classifySignError(err)
	}
	return req.URL, nil
}

func (g *S3Gateway) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := g.init(ctx); err != nil {
		g.logger.Error().Err(err).Msg("client init failed")
		return nil, ErrNetworkInterrupted
	}

	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		g.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("download failed")
		return nil, classifyDownloadError(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		g.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("download read failed")
		return nil, ErrNetworkInterrupted
	}
	return data, nil
}

func (g *S3Gateway) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	if err := g.init(ctx); err != nil {
		g.logger.Error().Err(err).Msg("client init failed")
		return ErrNetworkInterrupted
	}

	if _, err := g.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}); err != nil {
		g.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("upload failed")
		return classifyDownloadError(err)
	}
	return nil
}
