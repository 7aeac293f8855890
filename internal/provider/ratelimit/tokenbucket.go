package ratelimit

import (
	"context"
	"sync"
	"time"

	"quoteprovider/internal/provider"
)

// TokenBucket refills at rate tokens per second up to capacity, the burst.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// PerMinute builds a bucket from a requests-per-minute budget.
func PerMinute(rpm, burst int) *TokenBucket {
	return NewTokenBucket(float64(rpm)/60.0, burst)
}

// Wait blocks until one token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait := tb.take(time.Now())
		if wait == 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take refills the bucket up to now and consumes a token if one is whole.
// Otherwise it reports how long until the next token.
func (tb *TokenBucket) take(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if dt := now.Sub(tb.last).Seconds(); dt > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+dt*tb.rate)
		tb.last = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	return max(time.Duration((1-tb.tokens)/tb.rate*float64(time.Second)), time.Millisecond)
}

// TokenBucketQuoter gates each single-symbol call on a token.
type TokenBucketQuoter struct {
	Q  provider.Quoter
	TB *TokenBucket
}

func (t *TokenBucketQuoter) Name() string { return t.Q.Name() }

func (t *TokenBucketQuoter) Quote(ctx context.Context, symbol string) provider.Quote {
	if t.TB != nil {
		if err := t.TB.Wait(ctx); err != nil {
			return provider.Empty(symbol, t.Q.Name())
		}
	}
	return t.Q.Quote(ctx, symbol)
}

// Wrap applies the configured limiter to q: a token bucket when rpm is set,
// otherwise a minimum interval, otherwise q unchanged.
func Wrap(q provider.Quoter, rpm, burst int, minInterval time.Duration) provider.Quoter {
	if rpm > 0 {
		if burst <= 0 {
			burst = 1
		}
		return &TokenBucketQuoter{Q: q, TB: PerMinute(rpm, burst)}
	}
	if minInterval > 0 {
		return &MinInterval{Q: q, Interval: minInterval}
	}
	return q
}
