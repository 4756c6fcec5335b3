package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/blogport/media-pipeline/internal/media/models"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateWithAttachment(ctx context.Context, media *models.Media, a *models.MediaAttachment) error {
	args := m.Called(ctx, media, a)
	return args.Error(0)
}

func (m *RepoMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Media), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) SetState(ctx context.Context, id uuid.UUID, to models.State, reason string) (*models.Media, error) {
	args := m.Called(ctx, id, to, reason)
	if v := args.Get(0); v != nil {
		return v.(*models.Media), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) CASState(ctx context.Context, id uuid.UUID, from, to models.State) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) RecordVariants(ctx context.Context, mediaID uuid.UUID, variants []models.MediaVariant) ([]models.MediaVariant, error) {
	args := m.Called(ctx, mediaID, variants)
	if v := args.Get(0); v != nil {
		return v.([]models.MediaVariant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) GetVariant(ctx context.Context, mediaID uuid.UUID, size models.SizeClass) (*models.MediaVariant, error) {
	args := m.Called(ctx, mediaID, size)
	if v := args.Get(0); v != nil {
		return v.(*models.MediaVariant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) ListByAttachable(ctx context.Context, owner uuid.UUID, at models.AttachableType, attachableID uuid.UUID) ([]models.AttachedMedia, error) {
	args := m.Called(ctx, owner, at, attachableID)
	if v := args.Get(0); v != nil {
		return v.([]models.AttachedMedia), args.Error(1)
	}
	return nil, args.Error(1)
}

type SignerMock struct {
	mock.Mock
}

func (m *SignerMock) SignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *SignerMock) SignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, ttl)
	return args.String(0), args.Error(1)
}
