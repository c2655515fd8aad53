package ledger

import (
	"sync"
	"time"
)

// Clock is the ledger's time source. Production code uses SystemClock;
// tests use a ManualClock so expiry boundaries are exact.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return systemClock{} }

// ManualClock stands still until Set or Advance is called. Safe for
// concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(initial time.Time) *ManualClock {
	return &ManualClock{now: initial.UTC()}
}

// NewManualClockAt starts the clock at the given unix second.
func NewManualClockAt(unix int64) *ManualClock {
	return NewManualClock(time.Unix(unix, 0))
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

func (c *ManualClock) SetUnix(unix int64) { c.Set(time.Unix(unix, 0)) }

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
