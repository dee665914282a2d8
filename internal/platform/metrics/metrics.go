package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide request counters for the admin metrics endpoint.
type Collector struct {
	started     time.Time
	requests    atomic.Uint64
	byClass     [5]atomic.Uint64
	rateLimited atomic.Uint64
	conflicts   atomic.Uint64
	totalMs     atomic.Uint64
	maxMs       atomic.Uint64
}

func New() *Collector {
	return &Collector{started: time.Now()}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.Add(1)
	if class := status/100 - 1; class >= 0 && class < len(c.byClass) {
		c.byClass[class].Add(1)
	}
	switch status {
	case 429:
		c.rateLimited.Add(1)
	case 409:
		c.conflicts.Add(1)
	}

	ms := uint64(max(duration.Milliseconds(), 0))
	c.totalMs.Add(ms)
	for {
		seen := c.maxMs.Load()
		if ms <= seen || c.maxMs.CompareAndSwap(seen, ms) {
			break
		}
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := c.requests.Load()
	totalMs := c.totalMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"successTotal":     c.byClass[1].Load(),
		"clientErrorTotal": c.byClass[3].Load(),
		"errorsTotal":      c.byClass[4].Load(),
		"rateLimitedTotal": c.rateLimited.Load(),
		"conflictsTotal":   c.conflicts.Load(),
		"avgDurationMs":    avg,
		"maxDurationMs":    c.maxMs.Load(),
		"totalDurationMs":  totalMs,
		"uptimeSeconds":    int64(time.Since(c.started).Seconds()),
	}
}
