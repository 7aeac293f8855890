package ratelimit

import (
	"context"
	"sync"
	"time"

	"quoteprovider/internal/provider"
)

// MinInterval wraps a quoter and enforces a minimum time between call starts.
// Concurrent calls queue behind each other; a canceled wait yields an
// empty quote instead of an upstream call.
type MinInterval struct {
	Q        provider.Quoter
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.Q.Name() }

func (m *MinInterval) Quote(ctx context.Context, symbol string) provider.Quote {
	if m.Interval > 0 {
		// reserve a slot so concurrent callers are spaced out
		m.mu.Lock()
		now := time.Now()
		slot := m.next
		if slot.Before(now) {
			slot = now
		}
		m.next = slot.Add(m.Interval)
		m.mu.Unlock()

		if wait := time.Until(slot); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return provider.Empty(symbol, m.Q.Name())
			case <-t.C:
			}
		}
	}
	return m.Q.Quote(ctx, symbol)
}
