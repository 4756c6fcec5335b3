package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// MediaStateChanged is recorded in the outbox in the same transaction as the
// state transition it describes, then published to Kafka by the outbox
// publisher.
type MediaStateChanged struct {
	eventID    uuid.UUID
	mediaID    uuid.UUID
	from       State
	to         State
	reason     string
	occurredAt time.Time
}

func NewMediaStateChanged(mediaID uuid.UUID, from, to State, reason string) *MediaStateChanged {
	return &MediaStateChanged{
		eventID:    uuid.New(),
		mediaID:    mediaID,
		from:       from,
		to:         to,
		reason:     reason,
		occurredAt: time.Now(),
	}
}

func (e *MediaStateChanged) EventID() uuid.UUID     { return e.eventID }
func (e *MediaStateChanged) EventType() string      { return "MediaStateChanged" }
func (e *MediaStateChanged) AggregateID() uuid.UUID { return e.mediaID }
func (e *MediaStateChanged) OccurredAt() time.Time  { return e.occurredAt }

func (e *MediaStateChanged) From() State { return e.from }
func (e *MediaStateChanged) To() State   { return e.to }

func (e *MediaStateChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		MediaID    uuid.UUID `json:"media_id"`
		From       State     `json:"from"`
		To         State     `json:"to"`
		Reason     string    `json:"reason,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		MediaID:    e.mediaID,
		From:       e.from,
		To:         e.to,
		Reason:     e.reason,
		OccurredAt: e.occurredAt,
	})
}

// MediaUploadAuthorized is recorded when a pending media row is created,
// together with its first attachment.
type MediaUploadAuthorized struct {
	eventID    uuid.UUID
	mediaID    uuid.UUID
	ownerID    uuid.UUID
	bucket     string
	objectKey  string
	occurredAt time.Time
}

func NewMediaUploadAuthorized(mediaID, ownerID uuid.UUID, bucket, objectKey string) *MediaUploadAuthorized {
	return &MediaUploadAuthorized{
		eventID:    uuid.New(),
		mediaID:    mediaID,
		ownerID:    ownerID,
		bucket:     bucket,
		objectKey:  objectKey,
		occurredAt: time.Now(),
	}
}

func (e *MediaUploadAuthorized) EventID() uuid.UUID     { return e.eventID }
func (e *MediaUploadAuthorized) EventType() string      { return "MediaUploadAuthorized" }
func (e *MediaUploadAuthorized) AggregateID() uuid.UUID { return e.mediaID }
func (e *MediaUploadAuthorized) OccurredAt() time.Time  { return e.occurredAt }

func (e *MediaUploadAuthorized) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		MediaID    uuid.UUID `json:"media_id"`
		OwnerID    uuid.UUID `json:"owner_id"`
		Bucket     string    `json:"bucket"`
		ObjectKey  string    `json:"object_key"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		MediaID:    e.mediaID,
		OwnerID:    e.ownerID,
		Bucket:     e.bucket,
		ObjectKey:  e.objectKey,
		OccurredAt: e.occurredAt,
	})
}

// UploadFinalized is the payload consumed from the media.uploads topic: the
// object store's finalize notification bridged into Kafka. It triggers one
// pipeline run.
type UploadFinalized struct {
	MediaID uuid.UUID `json:"media_id"`
	Bucket  string    `json:"bucket"`
	Key     string    `json:"key"`
}
