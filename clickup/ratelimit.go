package clickup

import (
	"context"
	"sync"
	"time"
)

// pacer enforces a fixed minimum spacing between upstream requests.
// ClickUp rate-limits per token (100 req/min on the free plan), and
// evenly spaced requests avoid tripping the limit in bursts.
type pacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// newPacer creates a pacer with the given minimum interval between
// requests. A non-positive interval disables pacing.
func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// Wait blocks until the caller may issue a request, or until the
// context is cancelled. Slots are handed out in call order.
func (p *pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := time.Now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	p.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
