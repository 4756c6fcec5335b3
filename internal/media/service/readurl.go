package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/models"
	"github.com/blogport/media-pipeline/internal/storage/object"
)

// ReadGrant is a short-lived presigned GET URL for one variant.
type ReadGrant struct {
	URL       string
	ExpiresAt time.Time
}

// GetVariantReadURL grants read access to one variant of a ready media.
// Media owned by someone else is reported as not found, never as forbidden,
// so existence is not leaked across owners. Non-ready media maps to the
// state-specific errors so callers can distinguish "try later" from
// "permanently broken".
func (s *Service) GetVariantReadURL(ctx context.Context, ownerID, mediaID uuid.UUID, size models.SizeClass) (*ReadGrant, error) {
	if ownerID == uuid.Nil || mediaID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if _, err := models.ParseSizeClass(string(size)); err != nil {
		return nil, err
	}

	m, err := s.repo.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}

	switch m.State {
	case models.PendingState:
		return nil, models.ErrMediaPending
	case models.ProcessingState:
		return nil, models.ErrMediaProcessing
	case models.FailedState:
		return nil, models.ErrMediaFailed
	}

	v, err := s.repo.GetVariant(ctx, mediaID, size)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrVariantNotFound
		}
		return nil, err
	}

	url, err := s.signer.SignGet(ctx, v.BucketName, v.ObjectKey, object.SignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign read url: %w", err)
	}

	return &ReadGrant{
		URL:       url,
		ExpiresAt: s.clock().Add(object.SignedURLTTL),
	}, nil
}
