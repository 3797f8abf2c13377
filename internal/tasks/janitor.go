package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
)

// Janitor evicts expired entries from one or more stores.
type Janitor struct {
	stores []models.Evictor
	logger *log.Logger
	now    func() time.Time
}

// NewJanitor creates a [Janitor] for stores.
func NewJanitor(logger *log.Logger, stores ...models.Evictor) *Janitor {
	if logger == nil {
		logger = log.Default()
	}
	return &Janitor{stores: stores, logger: logger.With("component", "janitor"), now: time.Now}
}

// Sweep runs one eviction pass over every store and returns the number of entries removed.
// A failing store does not stop the others.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	now := j.now()
	total := 0

	var errs []error
	for _, store := range j.stores {
		n, err := store.Evict(ctx, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}

	if total > 0 {
		j.logger.Info("evicted expired entries", "count", total)
	}
	return total, errors.Join(errs...)
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil {
				j.logger.Error("eviction failed", "err", err)
			}
		}
	}
}
