package object

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestClassifySignError_TextHeuristics(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "permission", err: errors.New("403: Permission denied for principal"), want: ErrAccessDenied},
		{name: "forbidden", err: errors.New("request Forbidden by policy"), want: ErrAccessDenied},
		{name: "bucket missing", err: errors.New("bucket \"x\" not found"), want: ErrBucketNotFound},
		{name: "bucket 404", err: errors.New("bucket lookup returned 404"), want: ErrBucketNotFound},
		{name: "bad credentials", err: errors.New("could not load credential chain"), want: ErrConfiguration},
		{name: "invalid setup", err: errors.New("invalid endpoint"), want: ErrConfiguration},
		{name: "anything else", err: errors.New("tls handshake timeout"), want: ErrInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifySignError(tt.err), tt.want)
		})
	}
}

func TestClassifySignError_PrefersAPIErrorCode(t *testing.T) {
	// A structured code wins even when the message text would match another
	// bucket of the heuristics.
	err := &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "access denied maybe?"}
	assert.ErrorIs(t, classifySignError(err), ErrBucketNotFound)

	err = &smithy.GenericAPIError{Code: "AccessDenied", Message: "bucket not found"}
	assert.ErrorIs(t, classifySignError(err), ErrAccessDenied)
}

func TestClassifyDownloadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "api no such key", err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: ErrObjectNotFound},
		{name: "wrapped api error", err: fmt.Errorf("get object: %w", &smithy.GenericAPIError{Code: "NotFound"}), want: ErrObjectNotFound},
		{name: "text 404", err: errors.New("storage returned 404"), want: ErrObjectNotFound},
		{name: "text not found", err: errors.New("object not found"), want: ErrObjectNotFound},
		{name: "connection reset", err: errors.New("connection reset by peer"), want: ErrNetworkInterrupted},
		{name: "dns", err: errors.New("dns lookup failed"), want: ErrNetworkInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyDownloadError(tt.err), tt.want)
		})
	}
}
