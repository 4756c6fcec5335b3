package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/models"
)

// ListMedia returns every media attached to one owning entity, ordered by
// role then position. Only the caller's own media is returned; attachments
// whose media belongs to another owner are filtered out silently.
func (s *Service) ListMedia(ctx context.Context, ownerID uuid.UUID, at models.AttachableType, attachableID uuid.UUID) ([]models.AttachedMedia, error) {
	if ownerID == uuid.Nil || attachableID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if _, err := models.ParseAttachableType(string(at)); err != nil {
		return nil, err
	}
	return s.repo.ListByAttachable(ctx, ownerID, at, attachableID)
}
