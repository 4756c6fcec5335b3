package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/domain"
	"github.com/blogport/media-pipeline/internal/media/models"
	"github.com/blogport/media-pipeline/internal/storage/object"
)

// UploadCommand is one upload authorization request: the client-declared
// file metadata plus the attachment the media will belong to.
type UploadCommand struct {
	OwnerID        uuid.UUID
	Request        domain.UploadRequest
	AttachableType models.AttachableType
	AttachableID   uuid.UUID
	Role           string
	Position       int
	AltText        string
	Caption        string
}

// UploadAuthorization is what the client needs to perform the upload: a
// presigned PUT URL valid until ExpiresAt, plus the identifiers to poll with
// afterwards.
type UploadAuthorization struct {
	MediaID   uuid.UUID
	UploadURL string
	Bucket    string
	ObjectKey string
	ExpiresAt time.Time
}

// CreateUploadURL validates the request against the upload policy, persists
// the pending media row with its attachment, and signs a PUT URL for the
// original object. Policy checks run before any I/O.
//
// If signing fails after the row is committed, the pending row stays behind;
// it is logged and never becomes visible to readers.
func (s *Service) CreateUploadURL(ctx context.Context, cmd UploadCommand) (*UploadAuthorization, error) {
	if cmd.OwnerID == uuid.Nil || cmd.AttachableID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if _, err := models.ParseAttachableType(string(cmd.AttachableType)); err != nil {
		return nil, err
	}
	if cmd.Role == "" {
		return nil, fmt.Errorf("%w: attachment role is empty", models.ErrInvalidArgument)
	}

	if err := s.policy.Validate(cmd.Request); err != nil {
		return nil, err
	}

	now := s.clock()
	mediaID := s.idGen()
	key := models.OriginalObjectKey(mediaID, cmd.Request.Filename, cmd.Request.MimeType)

	m := &models.Media{
		ID:               mediaID,
		OwnerID:          cmd.OwnerID,
		BucketName:       s.policy.UploadBucket,
		ObjectKey:        key,
		OriginalFilename: cmd.Request.Filename,
		MimeType:         cmd.Request.MimeType,
		FileSizeBytes:    cmd.Request.FileSizeBytes,
		Width:            cmd.Request.WidthPx,
		Height:           cmd.Request.HeightPx,
		State:            models.PendingState,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	a := &models.MediaAttachment{
		ID:             s.idGen(),
		MediaID:        mediaID,
		AttachableType: cmd.AttachableType,
		AttachableID:   cmd.AttachableID,
		Role:           cmd.Role,
		Position:       cmd.Position,
		AltText:        cmd.AltText,
		Caption:        cmd.Caption,
		CreatedAt:      now,
	}

	if err := s.repo.CreateWithAttachment(ctx, m, a); err != nil {
		return nil, err
	}

	url, err := s.signer.SignPut(ctx, s.policy.UploadBucket, key, object.SignedURLTTL)
	if err != nil {
		// The committed pending row is now an orphan. Readers never see
		// pending media, so it is harmless; cleanup is out of scope here.
		s.logger.Warn().
			Str("media_id", mediaID.String()).
			Err(err).
			Msg("upload url signing failed after row commit")
		return nil, fmt.Errorf("sign upload url: %w", err)
	}

	return &UploadAuthorization{
		MediaID:   mediaID,
		UploadURL: url,
		Bucket:    s.policy.UploadBucket,
		ObjectKey: key,
		ExpiresAt: now.Add(object.SignedURLTTL),
	}, nil
}
