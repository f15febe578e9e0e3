// Package metrics keeps in-process counters for the kiosk API.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector counts HTTP traffic and reconciliation outcomes. The zero value
// is not usable; call New.
type Collector struct {
	started time.Time

	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	conflicts       atomic.Uint64
	totalDurationMs atomic.Uint64

	mu       sync.Mutex
	actions  map[string]uint64
	statuses map[string]uint64
}

func New() *Collector {
	return &Collector{
		started:  time.Now(),
		actions:  map[string]uint64{},
		statuses: map[string]uint64{},
	}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	switch {
	case status >= http.StatusInternalServerError:
		c.errorRequests.Add(1)
	case status == http.StatusTooManyRequests:
		c.rateLimited.Add(1)
	case status == http.StatusConflict:
		c.conflicts.Add(1)
	}
	if duration > 0 {
		c.totalDurationMs.Add(uint64(duration.Milliseconds()))
	}

	c.mu.Lock()
	c.statuses[fmt.Sprintf("%dxx", status/100)]++
	c.mu.Unlock()
}

// RecordAction counts one reconciliation outcome by action name.
func (c *Collector) RecordAction(action string) {
	c.mu.Lock()
	c.actions[action]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	actions := copyCounts(c.actions)
	statuses := copyCounts(c.statuses)
	c.mu.Unlock()

	return map[string]any{
		"uptimeSeconds":    int64(time.Since(c.started).Seconds()),
		"requestsTotal":    total,
		"errorsTotal":      c.errorRequests.Load(),
		"rateLimitedTotal": c.rateLimited.Load(),
		"conflictsTotal":   c.conflicts.Load(),
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"statusTotal":      statuses,
		"actionsTotal":     actions,
	}
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for name, count := range in {
		out[name] = count
	}
	return out
}
