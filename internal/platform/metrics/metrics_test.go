package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(201, 0)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 2*time.Millisecond)
	c.Record(409, 0)

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 5 {
		t.Fatalf("unexpected total %v", snap["requestsTotal"])
	}
	if snap["successTotal"].(uint64) != 2 || snap["clientErrorTotal"].(uint64) != 2 {
		t.Fatalf("unexpected status classes %v", snap)
	}
	if snap["errorsTotal"].(uint64) != 1 || snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("unexpected counters %v", snap)
	}
	if snap["conflictsTotal"].(uint64) != 1 {
		t.Fatalf("expected one conflict, got %v", snap["conflictsTotal"])
	}
	if snap["avgDurationMs"].(float64) != 8.4 || snap["maxDurationMs"].(uint64) != 30 {
		t.Fatalf("unexpected durations %v %v", snap["avgDurationMs"], snap["maxDurationMs"])
	}
}

func TestCollectorConcurrentRecords(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(ms int) {
			defer wg.Done()
			c.Record(200, time.Duration(ms)*time.Millisecond)
		}(i)
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 50 || snap["maxDurationMs"].(uint64) != 50 {
		t.Fatalf("unexpected snapshot %v", snap)
	}
}
