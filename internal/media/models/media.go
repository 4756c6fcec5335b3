package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	PendingState    State = "pending"
	ProcessingState State = "processing"
	ReadyState      State = "ready"
	FailedState     State = "failed"
)

// SizeClass identifies one of the fixed derivative sizes produced by the
// pipeline. Every ready media has exactly one variant per size class.
type SizeClass string

const (
	Thumbnail SizeClass = "thumbnail"
	Small     SizeClass = "small"
	Medium    SizeClass = "medium"
	Large     SizeClass = "large"
)

// SizeClasses lists every class in processing order.
var SizeClasses = [4]SizeClass{Thumbnail, Small, Medium, Large}

func ParseSizeClass(s string) (SizeClass, error) {
	switch SizeClass(s) {
	case Thumbnail, Small, Medium, Large:
		return SizeClass(s), nil
	}
	return "", fmt.Errorf("%w: unknown size class %q", ErrInvalidArgument, s)
}

// AttachableType is the kind of owning entity a media is attached to.
// The target tables differ per type, so this is a tag, not a foreign key;
// existence of the referenced entity is checked at the application boundary.
type AttachableType string

const (
	AttachableUser     AttachableType = "user"
	AttachableResume   AttachableType = "resume"
	AttachableProject  AttachableType = "project"
	AttachableBlogPost AttachableType = "blog_post"
)

func ParseAttachableType(s string) (AttachableType, error) {
	switch AttachableType(s) {
	case AttachableUser, AttachableResume, AttachableProject, AttachableBlogPost:
		return AttachableType(s), nil
	}
	return "", fmt.Errorf("%w: unknown attachable type %q", ErrInvalidArgument, s)
}

// Media is one uploaded asset: the original object plus pipeline state.
// Rows are created pending by the upload authorizer and mutated only by the
// pipeline; they are never physically deleted here.
type Media struct {
	ID               uuid.UUID `db:"id"`
	OwnerID          uuid.UUID `db:"owner_id"`
	BucketName       string    `db:"bucket_name"`
	ObjectKey        string    `db:"object_key"`
	OriginalFilename string    `db:"original_filename"`
	MimeType         string    `db:"mime_type"`
	FileSizeBytes    int64     `db:"file_size_bytes"`
	Width            *int      `db:"width"`
	Height           *int      `db:"height"`
	State            State     `db:"state"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// MediaAttachment links one media to one owning entity with contextual role
// and ordering. Unique on (media_id, attachable_type, attachable_id, role).
type MediaAttachment struct {
	ID             uuid.UUID      `db:"id"`
	MediaID        uuid.UUID      `db:"media_id"`
	AttachableType AttachableType `db:"attachable_type"`
	AttachableID   uuid.UUID      `db:"attachable_id"`
	Role           string         `db:"role"`
	Position       int            `db:"position"`
	AltText        string         `db:"alt_text"`
	Caption        string         `db:"caption"`
	CreatedAt      time.Time      `db:"created_at"`
}

// AttachedMedia is the join row returned by attachment listings.
type AttachedMedia struct {
	Media      Media
	Attachment MediaAttachment
}

// MediaVariant is one derivative at a fixed size class. Belongs to exactly
// one media; unique on (media_id, size).
type MediaVariant struct {
	ID            uuid.UUID `db:"id"`
	MediaID       uuid.UUID `db:"media_id"`
	Size          SizeClass `db:"size"`
	BucketName    string    `db:"bucket_name"`
	ObjectKey     string    `db:"object_key"`
	MimeType      string    `db:"mime_type"`
	FileSizeBytes int64     `db:"file_size_bytes"`
	Width         int       `db:"width"`
	Height        int       `db:"height"`
	CreatedAt     time.Time `db:"created_at"`
}
