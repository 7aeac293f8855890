package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoteprovider/internal/provider"
)

type fakeProvider struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	lastCtx context.Context
	mu      sync.Mutex
	seen    [][]string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, symbols)
	f.lastCtx = ctx
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]provider.Quote, 0, len(symbols))
	for _, s := range symbols {
		q := provider.Empty(s, "fake")
		q.Price = provider.Float(float64(n))
		out = append(out, q)
	}
	return out, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock { return &clock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)} }

func TestClampTTL(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultTTL, ClampTTL(0))
	require.Equal(t, MinTTL, ClampTTL(time.Second))
	require.Equal(t, MinTTL, ClampTTL(-time.Second))
	require.Equal(t, MaxTTL, ClampTTL(5*time.Minute))
	require.Equal(t, 20*time.Second, ClampTTL(20*time.Second))
}

func TestNormalizeSymbols_AndKey(t *testing.T) {
	t.Parallel()

	got := NormalizeSymbols([]string{" msft", "", "AAPL", "aapl ", "  "})
	require.Equal(t, []string{"MSFT", "AAPL"}, got)
	require.Equal(t, "AAPL,MSFT", Key(got))
	// Key must not reorder the caller's slice
	require.Equal(t, []string{"MSFT", "AAPL"}, got)
}

func TestFetch_HitWithinTTL(t *testing.T) {
	t.Parallel()

	clk := newClock()
	fp := &fakeProvider{}
	c := New(fp, WithTTL(30*time.Second), WithClock(clk.Now))

	first, err := c.Fetch(t.Context(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	clk.Advance(29 * time.Second)
	second, err := c.Fetch(t.Context(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, fp.calls.Load())
}

func TestFetch_ExpiryTriggersExactlyOneRefetch(t *testing.T) {
	t.Parallel()

	clk := newClock()
	fp := &fakeProvider{}
	c := New(fp, WithTTL(15*time.Second), WithClock(clk.Now))

	_, _ = c.Fetch(t.Context(), []string{"AAPL"})
	clk.Advance(15 * time.Second) // expiresAt == now counts as expired

	qs, err := c.Fetch(t.Context(), []string{"AAPL"})
	require.NoError(t, err)
	require.EqualValues(t, 2, fp.calls.Load())
	require.InEpsilon(t, 2.0, *qs[0].Price, 0.0001)

	_, _ = c.Fetch(t.Context(), []string{"AAPL"})
	require.EqualValues(t, 2, fp.calls.Load())
}

func TestFetch_KeyIgnoresCaseAndOrder(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	c := New(fp)

	_, _ = c.Fetch(t.Context(), []string{"aapl", "MSFT"})
	_, _ = c.Fetch(t.Context(), []string{"msft", "AAPL"})
	_, _ = c.Fetch(t.Context(), []string{" MSFT ", "aapl", "AAPL"})

	require.EqualValues(t, 1, fp.calls.Load())
	require.Equal(t, 1, c.Len())
	require.Equal(t, []string{"AAPL", "MSFT"}, fp.seen[0])
}

func TestFetch_DifferentSetsAreSeparateEntries(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	c := New(fp)

	_, _ = c.Fetch(t.Context(), []string{"AAPL"})
	_, _ = c.Fetch(t.Context(), []string{"AAPL", "MSFT"})

	require.EqualValues(t, 2, fp.calls.Load())
	require.Equal(t, 2, c.Len())
}

func TestFetch_CoalescesConcurrentMisses(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{release: make(chan struct{})}
	c := New(fp)

	const n = 10
	results := make([][]provider.Quote, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Fetch(t.Context(), []string{"AAPL", "MSFT"})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(fp.release)
	wg.Wait()

	require.EqualValues(t, 1, fp.calls.Load())
	for _, r := range results {
		require.Equal(t, results[0], r)
	}
}

func TestFetch_CallerCancelDoesNotCancelSharedFetch(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	c := New(fp)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := c.Fetch(ctx, []string{"AAPL"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.NoError(t, fp.lastCtx.Err())
}

func TestFetch_DeadlineReturnsEmptyAndFlightFillsCache(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{release: make(chan struct{})}
	c := New(fp)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	qs, err := c.Fetch(ctx, []string{"aapl", "msft"})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Len(t, qs, 2)
	for _, q := range qs {
		require.Nil(t, q.Price)
		require.Equal(t, "fake", q.Source)
	}
	require.Equal(t, 0, c.Len())

	close(fp.release)
	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)

	qs, err = c.Fetch(t.Context(), []string{"MSFT", "AAPL"})
	require.NoError(t, err)
	require.NotNil(t, qs[0].Price)
	require.EqualValues(t, 1, fp.calls.Load())
}

func TestFetch_UpstreamErrorIsNotCached(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{err: errors.New("boom")}
	c := New(fp)

	qs, err := c.Fetch(t.Context(), []string{"aapl", "msft"})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	for _, q := range qs {
		require.Nil(t, q.Price)
	}
	require.Equal(t, 0, c.Len())

	_, _ = c.Fetch(t.Context(), []string{"aapl", "msft"})
	require.EqualValues(t, 2, fp.calls.Load())
}

func TestFetch_EmptyInput(t *testing.T) {
	t.Parallel()

	fp := &fakeProvider{}
	c := New(fp)

	qs, err := c.Fetch(t.Context(), []string{" ", ""})
	require.NoError(t, err)
	require.Empty(t, qs)
	require.EqualValues(t, 0, fp.calls.Load())
}
