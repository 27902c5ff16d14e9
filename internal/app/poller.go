package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/five82/kiwi/internal/coordinator"
	"github.com/five82/kiwi/internal/state"
)

const maxBackoff = 30 * time.Second

// Refresher repeats the most recent fetch.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartPoller launches a background goroutine that refreshes the list every
// interval. Ticks that land while a write is in flight are skipped; after load
// failures the delay grows exponentially. It returns immediately.
func StartPoller(ctx context.Context, r Refresher, store *state.Store, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("poller")

	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			snap := store.Snapshot()
			if snap.IsSaving {
				logger.Debug("skipping refresh while saving")
			} else if err := r.Refresh(ctx); err != nil && !errors.Is(err, coordinator.ErrStale) && ctx.Err() == nil {
				logger.Warn("refresh failed", zap.Error(err))
			}

			delay := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			timer.Reset(delay)
		}
	}()
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff or base, whichever is larger.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	if failures > 30 {
		return limit
	}
	d := base << uint(failures)
	if d <= 0 || d > limit {
		return limit
	}
	return d
}
