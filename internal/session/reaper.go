package session

import (
	"context"
	"log"
	"time"
)

// Reaper periodically deactivates expired sessions. It is storage hygiene
// only: redemption rejects stale sessions on its own, reaped or not.
type Reaper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// NewReaper creates a reaper sweeping store every interval.
func NewReaper(store Store, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{store: store, interval: interval, now: time.Now}
}

// Run sweeps until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.Reap(ctx, r.now())
			if err != nil {
				log.Printf("session reap failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reaped %d expired sessions", n)
			}
		}
	}
}
