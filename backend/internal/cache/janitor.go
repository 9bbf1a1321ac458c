package cache

import (
	"context"
	"time"
)

// StartJanitor starts a background goroutine that periodically sweeps expired
// entries. Reads never wait for it: expiry stays lazy and the janitor only
// reclaims space.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	c.logger.Info("started cache janitor", "interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				memory, persisted := c.Sweep(ctx)
				if memory > 0 || persisted > 0 {
					c.logger.Debug("cache janitor swept expired entries",
						"memory", memory,
						"persisted", persisted)
				}
			case <-ctx.Done():
				c.logger.Info("cache janitor shutting down gracefully")
				return
			}
		}
	}()
}
