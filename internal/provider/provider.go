package provider

import (
	"context"
	"strings"
)

const (
	// SourceNone tags quotes that no upstream produced.
	SourceNone = "none"

	// WarningNotFound marks a quote for which no upstream data resolved.
	WarningNotFound = "not-found"
)

// Quote is the normalized shape returned by all providers.
// Nil numeric fields mean "unknown"; zero is a real value.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Price         *float64 `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
	Currency      *string  `json:"currency"`
	MarketTime    *string  `json:"marketTime"`
	Source        string   `json:"source"`
	Name          *string  `json:"name"`
	Warning       string   `json:"warning,omitempty"`
}

// Empty returns a quote for symbol with every value field unset.
func Empty(symbol, source string) Quote {
	return Quote{Symbol: symbol, Source: source}
}

// NotFound is the quote emitted when nothing resolved for symbol.
func NotFound(symbol string) Quote {
	q := Empty(symbol, SourceNone)
	q.Warning = WarningNotFound
	return q
}

func (q Quote) HasPrice() bool { return q.Price != nil }

// Normalize drops price-derived fields when the price itself is unknown,
// so a quote never carries a change without the price it was derived from.
func (q Quote) Normalize() Quote {
	if q.Price == nil {
		q.Change = nil
		q.ChangePercent = nil
	}
	return q
}

// Key is the lookup key callers index quotes by.
func (q Quote) Key() string { return strings.ToUpper(strings.TrimSpace(q.Symbol)) }

// Quoter resolves a single symbol. Implementations never fail: any upstream
// problem is reported as an empty quote.
type Quoter interface {
	Name() string
	Quote(ctx context.Context, symbol string) Quote
}

// Provider resolves a batch of symbols.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]Quote, error)
}

// Float and String build optional fields.
func Float(v float64) *float64 { return &v }
func String(v string) *string   { return &v }
