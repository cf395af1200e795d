package host

import (
	"sync"
	"time"
)

// Clock supplies the millisecond timestamp contracts observe.
type Clock interface {
	NowMillis() uint64
}

// SystemClock reads wall-clock time.
type SystemClock struct{}

func (SystemClock) NowMillis() uint64 {
	ms := time.Now().UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// ManualClock only moves when told to. It is safe for concurrent use.
type ManualClock struct {
	mu sync.RWMutex
	ms uint64
}

// NewManualClock starts the clock at ms.
func NewManualClock(ms uint64) *ManualClock {
	return &ManualClock{ms: ms}
}

// Set the time on the clock
func (c *ManualClock) Set(ms uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = ms
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += uint64(d.Milliseconds())
}

func (c *ManualClock) NowMillis() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ms
}
