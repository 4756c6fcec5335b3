package object

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// Classified storage errors. Classification is advisory: it routes errors to
// the right caller response, but absence of ErrAccessDenied is never proof
// the credentials are fine.
var (
	ErrAccessDenied       = errors.New("storage access denied")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrConfiguration      = errors.New("storage configuration error")
	ErrInfrastructure     = errors.New("storage infrastructure error")
	ErrObjectNotFound     = errors.New("object not found")
	ErrNetworkInterrupted = errors.New("network interrupted")
)

// classifySignError maps a transport failure during URL signing. Structured
// SDK error codes are checked first; the lowercased-text heuristics are a
// fallback for wrapped transport errors that lose their type.
func classifySignError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return ErrAccessDenied
		case "NoSuchBucket":
			return ErrBucketNotFound
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "TokenRefreshRequired":
			return ErrConfiguration
		}
	}

	m := strings.ToLower(err.Error())
	switch {
	case strings.Contains(m, "permission"), strings.Contains(m, "forbidden"), strings.Contains(m, "denied"):
		return ErrAccessDenied
	case strings.Contains(m, "bucket") && (strings.Contains(m, "not found") || strings.Contains(m, "404")):
		return ErrBucketNotFound
	case strings.Contains(m, "invalid"), strings.Contains(m, "config"), strings.Contains(m, "credential"):
		return ErrConfiguration
	default:
		return ErrInfrastructure
	}
}

// classifyDownloadError maps a transport failure during an object read to
// either absence or a transient network fault.
func classifyDownloadError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return ErrObjectNotFound
		}
	}

	m := strings.ToLower(err.Error())
	if strings.Contains(m, "404") || strings.Contains(m, "not found") || strings.Contains(m, "no such key") {
		return ErrObjectNotFound
	}
	return ErrNetworkInterrupted
}
