package approval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wallet-background/internal/action"
	"wallet-background/pkg/logger"
)

// Reaper periodically reconciles pending actions against the set of open
// popup windows. A user closing the approval window instead of clicking
// Reject must still resolve the page-side promise.
type Reaper struct {
	store    *action.Store
	windows  WindowManager
	interval time.Duration
}

func NewReaper(store *action.Store, windows WindowManager, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reaper{store: store, windows: windows, interval: interval}
}

// Run blocks until ctx is done, sweeping on every tick.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs a single reconciliation pass.
func (r *Reaper) Sweep(ctx context.Context) {
	ids, err := r.windows.OpenWindowIDs(ctx)
	if err != nil {
		logger.Error("could not list approval windows", zap.Error(err))
		return
	}
	open := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		open[id] = struct{}{}
	}
	r.store.RemoveStalePopups(ctx, open)
}
