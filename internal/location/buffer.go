package location

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fixBuffer keeps the newest fix pushed by a streaming receiver and hands it to
// pollers. Fixes older than maxAge (by receive time) are not served; pollers
// wait for the next one instead.
type fixBuffer struct {
	mu         sync.Mutex
	latest     *Fix
	receivedAt time.Time
	ready      chan struct{} // closed and replaced on every offer
	now        func() time.Time
}

func newFixBuffer() *fixBuffer {
	return &fixBuffer{ready: make(chan struct{}), now: time.Now}
}

func (b *fixBuffer) offer(f Fix) {
	b.mu.Lock()
	b.latest = &f
	b.receivedAt = b.now()
	close(b.ready)
	b.ready = make(chan struct{})
	b.mu.Unlock()
}

// next returns the buffered fix if it is fresh and accepted, otherwise waits for
// the next offered fix that accept allows. A nil accept allows every fix.
func (b *fixBuffer) next(ctx context.Context, maxAge time.Duration, accept func(Fix) bool) (*Fix, error) {
	if accept == nil {
		accept = func(Fix) bool { return true }
	}

	b.mu.Lock()
	if b.latest != nil && maxAge > 0 && b.now().Sub(b.receivedAt) <= maxAge && accept(*b.latest) {
		f := *b.latest
		b.mu.Unlock()
		return &f, nil
	}
	ready := b.ready
	b.mu.Unlock()

	for {
		select {
		case <-ready:
			b.mu.Lock()
			f := *b.latest
			ready = b.ready
			b.mu.Unlock()
			if accept(f) {
				return &f, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNoFix, ctx.Err())
		}
	}
}
