package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blogport/media-pipeline/internal/media/domain"
	"github.com/blogport/media-pipeline/internal/media/repository"
)

// URLSigner issues presigned URLs against the object store. Satisfied by
// object.S3Gateway.
type URLSigner interface {
	SignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	SignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Service owns the client-facing media operations: authorizing uploads,
// granting variant read access and listing attachments. The pipeline itself
// lives elsewhere; the service never touches object bytes.
type Service struct {
	repo   repository.MediaRepository
	signer URLSigner
	policy domain.UploadPolicy
	logger zerolog.Logger
	clock  func() time.Time
	idGen  func() uuid.UUID
}

func New(repo repository.MediaRepository, signer URLSigner, policy domain.UploadPolicy, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		signer: signer,
		policy: policy,
		logger: logger.With().Str("component", "media_service").Logger(),
		clock:  time.Now,
		idGen:  uuid.New,
	}
}
