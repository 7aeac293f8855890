package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quoteprovider/internal/provider"
)

const (
	DefaultTTL = 30 * time.Second
	MinTTL     = 15 * time.Second
	MaxTTL     = 60 * time.Second
)

// ClampTTL bounds ttl to [MinTTL, MaxTTL]; zero selects DefaultTTL.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return DefaultTTL
	}
	return min(max(ttl, MinTTL), MaxTTL)
}

// entry stores one batch result with its expiry.
type entry struct {
	expiresAt time.Time
	quotes    []provider.Quote
}

// Provider caches whole batch results keyed by the normalized symbol set.
// Concurrent misses for the same set share a single upstream fetch.
//
// The map is never pruned. Keys come from client watchlists, so the key
// space stays small; an open-ended client population would need eviction.
type Provider struct {
	p      provider.Provider
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu    sync.RWMutex
	items map[string]entry // key: sorted normalized symbols

	flight singleflight.Group
}

type Option func(*Provider)

func WithTTL(ttl time.Duration) Option { return func(c *Provider) { c.ttl = ClampTTL(ttl) } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *Provider) { c.now = now } }

func WithLogger(l *zap.Logger) Option {
	return func(c *Provider) {
		if l != nil {
			c.logger = l
		}
	}
}

// New wraps p. The returned cache is empty.
func New(p provider.Provider, opts ...Option) *Provider {
	c := &Provider{
		p:      p,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
		items:  make(map[string]entry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Provider) Name() string { return c.p.Name() }

func (c *Provider) TTL() time.Duration { return c.ttl }

// Len reports the number of stored batches, expired ones included.
func (c *Provider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// NormalizeSymbols trims, drops empties, uppercases and deduplicates.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Key is the cache key for an already normalized symbol set.
func Key(normalized []string) string {
	sorted := slices.Clone(normalized)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

// Fetch returns quotes for symbols, serving the cached batch while fresh.
// It never returns an error: an upstream failure yields empty quotes and
// nothing is cached. A caller whose ctx ends first gets empty quotes while
// the shared fetch runs on and fills the entry for the next call.
func (c *Provider) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	normalized := NormalizeSymbols(symbols)
	if len(normalized) == 0 {
		return []provider.Quote{}, nil
	}
	key := Key(normalized)

	if qs, ok := c.lookup(key); ok {
		return qs, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		// another flight may have filled the entry while we queued
		if qs, ok := c.lookup(key); ok {
			return qs, nil
		}
		// the flight outlives any single caller; per-call timeouts bound it
		qs, err := c.p.Fetch(context.WithoutCancel(ctx), normalized)
		if err != nil {
			return nil, err
		}
		c.store(key, qs)
		return qs, nil
	})

	select {
	case <-ctx.Done():
		c.logger.Warn("quote batch not ready before deadline",
			zap.String("key", key),
			zap.Error(ctx.Err()),
		)
		return c.empty(normalized), nil
	case res := <-ch:
		if res.Err != nil {
			c.logger.Warn("quote batch fetch failed",
				zap.String("key", key),
				zap.Bool("shared", res.Shared),
				zap.Error(res.Err),
			)
			return c.empty(normalized), nil
		}
		if res.Shared {
			c.logger.Debug("joined in-flight quote fetch", zap.String("key", key))
		}
		return res.Val.([]provider.Quote), nil
	}
}

func (c *Provider) empty(normalized []string) []provider.Quote {
	out := make([]provider.Quote, 0, len(normalized))
	for _, s := range normalized {
		out = append(out, provider.Empty(s, c.p.Name()))
	}
	return out
}

func (c *Provider) lookup(key string) ([]provider.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !e.expiresAt.After(c.now()) {
		return nil, false
	}
	return e.quotes, true
}

func (c *Provider) store(key string, qs []provider.Quote) {
	c.mu.Lock()
	c.items[key] = entry{expiresAt: c.now().Add(c.ttl), quotes: qs}
	c.mu.Unlock()
}
