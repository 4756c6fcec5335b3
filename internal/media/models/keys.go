package models

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// OriginalObjectKey builds the deterministic storage key for an original
// upload: {mediaId}/original.{ext}. The extension comes from the client
// filename; when the filename carries none, it falls back to the MIME
// subtype.
func OriginalObjectKey(mediaID uuid.UUID, filename, mimeType string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		if _, sub, ok := strings.Cut(mimeType, "/"); ok {
			ext = sub
		}
	}
	ext = strings.ToLower(ext)
	if ext == "" {
		ext = "bin"
	}
	return mediaID.String() + "/original." + ext
}

// VariantObjectKey builds the storage key for one derivative:
// {mediaId}/{size}.webp.
func VariantObjectKey(mediaID uuid.UUID, size SizeClass) string {
	return mediaID.String() + "/" + string(size) + ".webp"
}
