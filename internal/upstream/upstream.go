// Package upstream assembles the quote provider chain from config.
package upstream

import (
	"go.uber.org/zap"

	"quoteprovider/internal/config"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/provider"
	"quoteprovider/internal/provider/cache"
	"quoteprovider/internal/provider/finnhub"
	"quoteprovider/internal/provider/pool"
	"quoteprovider/internal/provider/ratelimit"
	"quoteprovider/internal/quoteservice"
)

// Local builds finnhub -> ratelimit -> pool -> cache. The returned cache is
// the process-wide instance; build it once and share it.
func Local(cfg config.Config, hc httpx.Doer, logger *zap.Logger) *cache.Provider {
	client := finnhub.NewClient(cfg.Finnhub.APIKey,
		finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
		finnhub.WithHTTPClient(hc),
		finnhub.WithTimeout(cfg.FinnhubTimeout()),
		finnhub.WithLogger(logger),
	)
	q := ratelimit.Wrap(client, cfg.Finnhub.MaxRequestsPerMin, cfg.Finnhub.Burst, cfg.FinnhubMinInterval())
	return cache.New(&pool.Fetcher{Q: q, Limit: cfg.Quotes.Concurrency},
		cache.WithTTL(cfg.CacheTTL()),
		cache.WithLogger(logger),
	)
}

// Remote delegates to a quote service at cfg.Quotes.ServiceURL.
func Remote(cfg config.Config, hc httpx.Doer) *quoteservice.Client {
	return quoteservice.New(cfg.Quotes.ServiceURL, hc, cfg.RequestTimeout())
}

// Build picks Local or Remote by cfg.Quotes.Mode.
func Build(cfg config.Config, hc httpx.Doer, logger *zap.Logger) provider.Provider {
	if cfg.Quotes.Mode == config.ModeRemote {
		logger.Info("delegating quotes", zap.String("service_url", cfg.Quotes.ServiceURL))
		return Remote(cfg, hc)
	}
	logger.Info("resolving quotes locally",
		zap.Int("concurrency", cfg.Quotes.Concurrency),
		zap.Duration("cache_ttl", cfg.CacheTTL()),
		zap.Int("max_rpm", cfg.Finnhub.MaxRequestsPerMin),
	)
	return Local(cfg, hc, logger)
}
