package domain

import (
	"fmt"
	"slices"

	"github.com/blogport/media-pipeline/internal/media/models"
)

// UploadPolicy bounds what clients may request an upload URL for. All checks
// run before any database or storage I/O.
type UploadPolicy struct {
	MaxFileSizeBytes int64
	MaxEdgePx        int
	MaxFilenameLen   int
	AllowedMimeTypes []string
	UploadBucket     string
	ManifestBucket   string
}

const (
	DefaultMaxFileSizeBytes = 5 * 1024 * 1024
	DefaultMaxEdgePx        = 6000
	DefaultMaxFilenameLen   = 255
	DefaultUploadBucket     = "blogport-cms-upload"
	DefaultManifestBucket   = "blogport-cms-manifests"
)

var DefaultAllowedMimeTypes = []string{"image/jpeg", "image/png", "image/webp"}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxFileSizeBytes: DefaultMaxFileSizeBytes,
		MaxEdgePx:        DefaultMaxEdgePx,
		MaxFilenameLen:   DefaultMaxFilenameLen,
		AllowedMimeTypes: DefaultAllowedMimeTypes,
		UploadBucket:     DefaultUploadBucket,
		ManifestBucket:   DefaultManifestBucket,
	}
}

// UploadRequest carries the client-declared metadata validated against the
// policy.
type UploadRequest struct {
	Filename      string
	MimeType      string
	FileSizeBytes int64
	WidthPx       *int
	HeightPx      *int
}

// Validate checks an upload request against the policy. A request equal to a
// limit passes; one past it fails.
func (p UploadPolicy) Validate(req UploadRequest) error {
	if req.Filename == "" {
		return fmt.Errorf("%w: filename is empty", models.ErrPolicyViolation)
	}
	if len(req.Filename) > p.MaxFilenameLen {
		return fmt.Errorf("%w: filename longer than %d characters", models.ErrPolicyViolation, p.MaxFilenameLen)
	}
	if !slices.Contains(p.AllowedMimeTypes, req.MimeType) {
		return fmt.Errorf("%w: mime type %q not allowed", models.ErrPolicyViolation, req.MimeType)
	}
	if req.FileSizeBytes <= 0 {
		return fmt.Errorf("%w: file size must be positive", models.ErrPolicyViolation)
	}
	if req.FileSizeBytes > p.MaxFileSizeBytes {
		return fmt.Errorf("%w: file larger than %d bytes", models.ErrPolicyViolation, p.MaxFileSizeBytes)
	}
	if req.WidthPx != nil && *req.WidthPx > p.MaxEdgePx {
		return fmt.Errorf("%w: width exceeds %dpx", models.ErrPolicyViolation, p.MaxEdgePx)
	}
	if req.HeightPx != nil && *req.HeightPx > p.MaxEdgePx {
		return fmt.Errorf("%w: height exceeds %dpx", models.ErrPolicyViolation, p.MaxEdgePx)
	}
	return nil
}
