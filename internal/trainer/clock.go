package trainer

import (
	"sync"
	"time"
)

// FrameClock reports the timestamp of the frame being processed, so that
// recorded input replays with its original timing. It never goes backwards.
type FrameClock struct {
	mu sync.Mutex
	t  time.Time
}

// Set advances the clock to t. Earlier times are ignored.
func (c *FrameClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.t) {
		c.t = t
	}
}

func (c *FrameClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}
