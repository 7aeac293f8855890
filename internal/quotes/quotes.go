// Package quotes serves /api/quotes: it classifies the requested symbols,
// resolves them through an upstream and answers with one quote per request
// entry, in order.
package quotes

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"quoteprovider/internal/aggregate"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/logging"
	"quoteprovider/internal/provider"
	"quoteprovider/internal/symbol"
)

const (
	// MaxSymbols is the most entries considered from one request.
	MaxSymbols = 50

	ErrServiceError       = "quote-service-error"
	ErrServiceUnavailable = "quote-service-unavailable"
)

// Response is the /api/quotes body.
type Response struct {
	Quotes []provider.Quote `json:"quotes"`
	Error  string           `json:"error,omitempty"`
}

// Service resolves symbol lists against Upstream.
type Service struct {
	Upstream   provider.Provider
	Logger     *zap.Logger
	MaxSymbols int
}

func NewService(upstream provider.Provider, logger *zap.Logger) *Service {
	return &Service{Upstream: upstream, Logger: logging.OrNop(logger), MaxSymbols: MaxSymbols}
}

// ParseSymbols splits a comma-separated parameter, trimming and dropping
// empties, and keeps at most limit entries.
func ParseSymbols(raw string, limit int) []string {
	if limit <= 0 {
		limit = MaxSymbols
	}
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return Clip(strings.Split(raw, ","), limit)
}

// Clip applies the ParseSymbols rules to a list that is already split.
func Clip(raws []string, limit int) []string {
	if limit <= 0 {
		limit = MaxSymbols
	}
	out := make([]string, 0, min(len(raws), limit))
	for _, p := range raws {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Resolve never fails. An upstream failure is reported through
// Response.Error with an empty quote list.
func (s *Service) Resolve(ctx context.Context, raws []string) Response {
	if len(raws) == 0 {
		return Response{Quotes: []provider.Quote{}}
	}
	requested := symbol.ClassifyAll(raws)
	normalized := symbol.UniqueNormalized(requested)

	fetched, err := s.Upstream.Fetch(ctx, normalized)
	if err != nil {
		tag := ErrorTag(err)
		s.Logger.Error("quote upstream failed",
			zap.String("upstream", s.Upstream.Name()),
			zap.Strings("symbols", normalized),
			zap.String("tag", tag),
			zap.Error(err),
		)
		return Response{Quotes: []provider.Quote{}, Error: tag}
	}
	return Response{Quotes: aggregate.Expand(requested, fetched)}
}

// ErrorTag maps an upstream error to the tag reported to clients: the
// service answered badly, or it could not be reached at all.
func ErrorTag(err error) string {
	var se *httpx.StatusError
	var de *httpx.DecodeError
	if errors.As(err, &se) || errors.As(err, &de) {
		return ErrServiceError
	}
	return ErrServiceUnavailable
}
