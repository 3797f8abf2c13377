// package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	// StateLength is the length of the random CSRF component of an OAuth state.
	StateLength = 13
	// SessionIDLength is the length of a blend session identifier.
	SessionIDLength = 6
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that appends to the file at path, creating parent directories as needed.
func NewFileLogger(path string) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), nil
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns a random base-36 string used as the CSRF component of an OAuth state parameter.
func GenerateState() (string, error) {
	return randomString(StateLength)
}

// GenerateSessionID returns a short random base-36 blend session identifier.
//
// Identifiers are short enough to share by hand, so callers must check the store for collisions.
func GenerateSessionID() (string, error) {
	return randomString(SessionIDLength)
}

func randomString(n int) (string, error) {
	return randomStringFrom(rand.Reader, n)
}

// randomStringFrom draws n base-36 characters from r.
//
// Bytes at or above the largest multiple of 36 are discarded so every character is equally likely.
func randomStringFrom(r io.Reader, n int) (string, error) {
	limit := byte(256 - 256%len(base36))
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, base36[int(b)%len(base36)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// FormatDuration renders a track length in milliseconds as m:ss.
func FormatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
