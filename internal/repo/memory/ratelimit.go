package memory

import (
	"context"
	"time"
)

type rateWindow struct {
	start   time.Time
	expires time.Time
	count   int
}

// RateCounter is the fixed-window counter used by the rate limit middleware.
type RateCounter struct{ db *DB }

func (c *RateCounter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	now := c.db.now()
	w := c.db.rate[key]
	if w.start.IsZero() || now.Sub(w.start) >= window {
		w = rateWindow{start: now, expires: now.Add(window)}
	}
	w.count++
	c.db.rate[key] = w
	return w.count <= limit, nil
}

// CleanupExpired drops windows that can no longer affect a decision.
func (c *RateCounter) CleanupExpired(_ context.Context) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	now := c.db.now()
	var n int64
	for key, w := range c.db.rate {
		if !now.Before(w.expires) {
			delete(c.db.rate, key)
			n++
		}
	}
	return n, nil
}
