package solver

import (
	"context"
	"time"
)

// deadline tracks the wall-clock budget of a single run. Controllers poll
// reached at iteration boundaries; tight scan loops use exceeded, which
// amortizes the clock read over 256 calls.
type deadline struct {
	ctx   context.Context
	start time.Time
	limit time.Duration
	ticks uint64
}

func newDeadline(ctx context.Context, limit time.Duration) *deadline {
	return &deadline{ctx: ctx, start: time.Now(), limit: limit}
}

func (d *deadline) elapsed() time.Duration { return time.Since(d.start) }

// reached reports whether the budget is spent or the context canceled.
// A zero or negative limit counts as already spent.
func (d *deadline) reached() bool {
	if d.limit <= 0 {
		return true
	}
	select {
	case <-d.ctx.Done():
		return true
	default:
	}
	return time.Since(d.start) >= d.limit
}

func (d *deadline) exceeded() bool {
	d.ticks++
	if d.ticks&255 != 0 {
		return false
	}
	return d.reached()
}
