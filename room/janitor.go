package room

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunJanitor sweeps idle rooms every interval until ctx is done. It returns
// at once when ttl disables eviction.
func (r *Registry) RunJanitor(ctx context.Context, interval, ttl time.Duration, log *zap.Logger) {
	if ttl <= 0 || interval <= 0 {
		log.Info("room eviction disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.Sweep(ttl); len(evicted) > 0 {
				log.Info("evicted idle rooms",
					zap.Strings("room_ids", evicted),
					zap.Int("remaining", r.Len()),
				)
			}
		}
	}
}
