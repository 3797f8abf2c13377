package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

const (
	DefaultWatchInterval    = 3 * time.Second
	DefaultWatchMaxDelay    = 30 * time.Second
	DefaultWatchMaxAttempts = 100
)

// errPeerMissing marks a poll that found the session without its second participant.
var errPeerMissing = errors.New("second participant has not joined")

// SessionClient reads a session from a Blendify server.
// Implementations return [shared.ErrSessionNotFound] for unknown sessions.
type SessionClient interface {
	Session(ctx context.Context, id string) (*models.Session, error)
}

// WatchOpts bounds a watch. Zero values fall back to the defaults above.
type WatchOpts struct {
	Interval    time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Logger      *log.Logger
}

// Watcher polls a session until both participants are present.
type Watcher struct {
	client SessionClient
	opts   WatchOpts
	logger *log.Logger
}

// NewWatcher creates a [Watcher] reading through client.
func NewWatcher(client SessionClient, opts WatchOpts) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultWatchInterval
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultWatchMaxDelay
	}
	if opts.MaxDelay < opts.Interval {
		opts.MaxDelay = opts.Interval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultWatchMaxAttempts
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{client: client, opts: opts, logger: logger.With("component", "watcher")}
}

// sendUpdate publishes update without blocking. Updates are dropped when nobody is reading.
func sendUpdate(updates chan<- WatchUpdate, update WatchUpdate) {
	if updates == nil {
		return
	}
	select {
	case updates <- update:
	default:
	}
}

// Watch polls session id until it is complete, is not found, the attempt budget runs out, or ctx is done.
//
// The delay between polls starts at the interval and doubles up to the maximum delay.
// Transport errors and 5xx responses use up attempts like any other poll.
func (w *Watcher) Watch(ctx context.Context, id string, updates chan<- WatchUpdate) (*models.Session, error) {
	maxAttempts := w.opts.MaxAttempts
	attempt := 0

	sendUpdate(updates, loadingUpdate(id, maxAttempts))

	session, err := retry.DoWithData(
		func() (*models.Session, error) {
			attempt++
			s, err := w.client.Session(ctx, id)
			switch {
			case errors.Is(err, shared.ErrSessionNotFound):
				return nil, retry.Unrecoverable(err)
			case err != nil:
				return nil, err
			case !s.HasPeer():
				sendUpdate(updates, waitingUpdate(attempt, maxAttempts, s))
				return nil, errPeerMissing
			}
			return s, nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.Delay(w.opts.Interval),
		retry.MaxDelay(w.opts.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if !errors.Is(err, errPeerMissing) {
				w.logger.Debug("poll failed", "session", id, "attempt", n+1, "err", err)
			}
		}),
	)

	if err == nil {
		sendUpdate(updates, completeUpdate(attempt, maxAttempts, session))
		return session, nil
	}

	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case errors.Is(err, errPeerMissing):
		err = fmt.Errorf("%w: %d attempts", shared.ErrWatchExhausted, attempt)
	}

	sendUpdate(updates, failedUpdate(attempt, maxAttempts, err))
	return nil, err
}
