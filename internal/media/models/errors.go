package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")

	// ErrPolicyViolation rejects client input before any I/O is performed.
	ErrPolicyViolation = errors.New("upload policy violation")

	// State-gating errors returned by the read path for non-ready media.
	ErrMediaPending    = errors.New("media upload not completed")
	ErrMediaProcessing = errors.New("media is being processed")
	ErrMediaFailed     = errors.New("media processing failed")
	ErrVariantNotFound = errors.New("variant not found")
)
