package domain

import (
	"fmt"

	"github.com/blogport/media-pipeline/internal/media/models"
)

// CanTransition reports whether a media state change is allowed. Transitions
// only move forward: pending -> processing -> {ready, failed}. Terminal
// states never transition again; restoring failed media is an explicit reset
// outside this pipeline.
func CanTransition(from, to models.State) bool {
	switch from {
	case models.PendingState:
		return to == models.ProcessingState || to == models.FailedState
	case models.ProcessingState:
		return to == models.ReadyState || to == models.FailedState
	case models.ReadyState:
		return false
	case models.FailedState:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to models.State) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}
