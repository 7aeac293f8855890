// Package pool fans single-symbol lookups out over a fixed set of workers.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"quoteprovider/internal/provider"
)

const (
	DefaultLimit = 6
	MaxLimit     = 8
)

// ClampLimit bounds the worker count to [1, MaxLimit] and to n items.
// Non-positive limits select DefaultLimit.
func ClampLimit(limit, n int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(max(limit, 1), MaxLimit)
	return max(min(limit, n), 0)
}

// FetchAll resolves every symbol through q using at most limit concurrent
// calls. Workers claim the next unclaimed index from a shared cursor until
// the list is exhausted, so a slow symbol only holds its own worker.
//
// The result has one quote per input symbol. Callers should key results by
// symbol rather than position.
func FetchAll(ctx context.Context, q provider.Quoter, symbols []string, limit int) []provider.Quote {
	out := make([]provider.Quote, len(symbols))
	workers := ClampLimit(limit, len(symbols))
	if workers == 0 {
		return out
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(symbols) {
					return
				}
				out[i] = q.Quote(ctx, symbols[i]).Normalize()
			}
		}()
	}
	wg.Wait()
	return out
}

// Fetcher adapts a Quoter into a batch provider.Provider.
type Fetcher struct {
	Q     provider.Quoter
	Limit int
}

func (f *Fetcher) Name() string { return f.Q.Name() }

// Fetch never returns an error; failed symbols come back as empty quotes.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	return FetchAll(ctx, f.Q, symbols, f.Limit), nil
}
