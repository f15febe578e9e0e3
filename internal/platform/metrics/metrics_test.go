package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorRecord(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(502, 30*time.Millisecond)
	c.Record(429, 0)
	c.Record(409, 0)

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 4 {
		t.Fatalf("expected 4 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 error, got %v", snap["errorsTotal"])
	}
	if snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 rate limited, got %v", snap["rateLimitedTotal"])
	}
	if snap["conflictsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 conflict, got %v", snap["conflictsTotal"])
	}
	statuses := snap["statusTotal"].(map[string]uint64)
	if statuses["2xx"] != 1 || statuses["4xx"] != 2 || statuses["5xx"] != 1 {
		t.Fatalf("unexpected status classes: %v", statuses)
	}
	if snap["totalDurationMs"].(uint64) != 40 {
		t.Fatalf("expected 40ms total, got %v", snap["totalDurationMs"])
	}
}

func TestCollectorRecordActionConcurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordAction("check_in")
		}()
	}
	wg.Wait()
	c.RecordAction("check_out")

	actions := c.Snapshot()["actionsTotal"].(map[string]uint64)
	if actions["check_in"] != 50 || actions["check_out"] != 1 {
		t.Fatalf("unexpected action counts: %v", actions)
	}
}
