package models

import "github.com/google/uuid"

// Manifest is the JSON summary of all variants for one media, written once
// per successful pipeline run to the manifest bucket at
// {mediaId}/manifest.json. Immutable except on explicit reprocessing.
type Manifest struct {
	MediaID  uuid.UUID         `json:"media_id"`
	Variants []ManifestVariant `json:"variants"`
}

type ManifestVariant struct {
	Size   SizeClass `json:"size"`
	Bucket string    `json:"bucket"`
	Key    string    `json:"key"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Bytes  int64     `json:"bytes"`
	Mime   string    `json:"mime"`
}

// ManifestObjectKey returns the manifest location for a media.
func ManifestObjectKey(mediaID uuid.UUID) string {
	return mediaID.String() + "/manifest.json"
}
