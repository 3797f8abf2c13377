package tasks

import (
	"fmt"

	"github.com/desertthunder/blendify/internal/models"
)

// WatchState is the state of a watched session.
type WatchState int

const (
	// Loading: no response yet.
	Loading WatchState = iota
	// Waiting: the session exists but the second participant has not joined.
	Waiting
	// Complete: both track lists are present.
	Complete
	// Failed: the session is gone, the budget ran out, or the watch was cancelled.
	Failed
)

func (s WatchState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Waiting:
		return "waiting"
	case Complete:
		return "complete"
	case Failed:
		return "error"
	default:
		return ""
	}
}

// Terminal reports whether no further updates follow.
func (s WatchState) Terminal() bool {
	return s == Complete || s == Failed
}

// WatchUpdate is a state change published by [Watcher.Watch].
type WatchUpdate struct {
	State       WatchState
	Attempt     int             // Poll attempt that produced this update; 0 before the first
	MaxAttempts int             // Attempt budget
	Message     string          // Human-readable message for display
	Session     *models.Session // Latest session, nil while loading or on error
	Err         error           // Set when State is Failed
}

func loadingUpdate(id string, maxAttempts int) WatchUpdate {
	return WatchUpdate{
		State:       Loading,
		MaxAttempts: maxAttempts,
		Message:     fmt.Sprintf("Loading blend %s...", id),
	}
}

func waitingUpdate(attempt, maxAttempts int, s *models.Session) WatchUpdate {
	return WatchUpdate{
		State:       Waiting,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Message:     fmt.Sprintf("[%d/%d] Waiting for the second person to join...", attempt, maxAttempts),
		Session:     s,
	}
}

func completeUpdate(attempt, maxAttempts int, s *models.Session) WatchUpdate {
	return WatchUpdate{
		State:       Complete,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Message:     fmt.Sprintf("✓ Blend ready: %d tracks", len(s.Merged())),
		Session:     s,
	}
}

func failedUpdate(attempt, maxAttempts int, err error) WatchUpdate {
	return WatchUpdate{
		State:       Failed,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Message:     fmt.Sprintf("✗ %v", err),
		Err:         err,
	}
}
