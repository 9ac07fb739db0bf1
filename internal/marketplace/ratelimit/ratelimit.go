package ratelimit

import (
	"context"
	"sync"
	"time"

	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/model"
)

// MinInterval wraps an adapter and enforces a minimum time between calls
// to its marketplace. Concurrent callers are serialized: the mutex is
// held across the upstream call so two requests to the same marketplace
// never overlap, which is what a shared per-IP quota requires. Waiting
// callers return early if their context is canceled.
type MinInterval struct {
	Adapter  marketplace.Adapter
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() model.Marketplace { return m.Adapter.Name() }

func (m *MinInterval) FetchPrice(ctx context.Context, itemName string) (*model.PriceQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Interval > 0 {
		if wait := time.Until(m.last.Add(m.Interval)); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}

	q, err := m.Adapter.FetchPrice(ctx, itemName)
	if m.Interval > 0 {
		m.last = time.Now()
	}
	return q, err
}
