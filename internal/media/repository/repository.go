package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/models"
)

// MediaRepository is the persistence port shared by the upload authorizer,
// the pipeline and the read path. Implementations must give each write
// single-transaction semantics: no caller ever observes a partial attachment
// or a partial variant set.
type MediaRepository interface {
	// CreateWithAttachment inserts a pending media row and its first
	// attachment atomically. On error nothing is persisted.
	CreateWithAttachment(ctx context.Context, m *models.Media, a *models.MediaAttachment) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Media, error)

	// SetState moves a media to a new state and returns the row as it was
	// before the update, or models.ErrNotFound.
	SetState(ctx context.Context, id uuid.UUID, to models.State, reason string) (*models.Media, error)

	// CASState performs the conditional pending->processing style update:
	// the transition happens only if the row currently holds the expected
	// state. Returns false with no error when another invocation won.
	CASState(ctx context.Context, id uuid.UUID, from, to models.State) (bool, error)

	// RecordVariants batch-inserts the full variant set and flips the media
	// processing->ready in one transaction, so readers never observe ready
	// with an incomplete set.
	RecordVariants(ctx context.Context, mediaID uuid.UUID, variants []models.MediaVariant) ([]models.MediaVariant, error)

	GetVariant(ctx context.Context, mediaID uuid.UUID, size models.SizeClass) (*models.MediaVariant, error)

	// ListByAttachable returns every attachment of one owning entity joined
	// with its media, ordered by role then position.
	ListByAttachable(ctx context.Context, owner uuid.UUID, at models.AttachableType, attachableID uuid.UUID) ([]models.AttachedMedia, error)
}
