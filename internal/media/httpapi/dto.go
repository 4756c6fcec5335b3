package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/models"
	"github.com/blogport/media-pipeline/internal/media/service"
)

type CreateUploadRequest struct {
	Filename       string    `json:"filename"`
	MimeType       string    `json:"mime_type"`
	FileSizeBytes  int64     `json:"file_size_bytes"`
	Width          *int      `json:"width,omitempty"`
	Height         *int      `json:"height,omitempty"`
	AttachableType string    `json:"attachable_type"`
	AttachableID   uuid.UUID `json:"attachable_id"`
	Role           string    `json:"role"`
	Position       int       `json:"position"`
	AltText        string    `json:"alt_text"`
	Caption        string    `json:"caption"`
}

type UploadAuthorizationResponse struct {
	MediaID   uuid.UUID `json:"media_id"`
	UploadURL string    `json:"upload_url"`
	Bucket    string    `json:"bucket"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ReadGrantResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AttachedMediaResponse struct {
	MediaID          uuid.UUID `json:"media_id"`
	State            string    `json:"state"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	Role             string    `json:"role"`
	Position         int       `json:"position"`
	AltText          string    `json:"alt_text,omitempty"`
	Caption          string    `json:"caption,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toUploadAuthorizationResponse(a *service.UploadAuthorization) UploadAuthorizationResponse {
	return UploadAuthorizationResponse{
		MediaID:   a.MediaID,
		UploadURL: a.UploadURL,
		Bucket:    a.Bucket,
		ObjectKey: a.ObjectKey,
		ExpiresAt: a.ExpiresAt,
	}
}

func toAttachedMediaResponse(am models.AttachedMedia) AttachedMediaResponse {
	return AttachedMediaResponse{
		MediaID:          am.Media.ID,
		State:            string(am.Media.State),
		OriginalFilename: am.Media.OriginalFilename,
		MimeType:         am.Media.MimeType,
		FileSizeBytes:    am.Media.FileSizeBytes,
		Role:             am.Attachment.Role,
		Position:         am.Attachment.Position,
		AltText:          am.Attachment.AltText,
		Caption:          am.Attachment.Caption,
		CreatedAt:        am.Media.CreatedAt,
	}
}
