package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"quoteprovider/internal/httpx"
	"quoteprovider/internal/provider"
)

// ErrDecode is returned by decodeQuote for payloads that carry no usable quote.
var ErrDecode = errors.New("finnhub: unusable quote payload")

// isoMillis matches the ISO-8601 form dashboards already parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// quotePayload is the /api/v1/quote response.
//
//	{"c":189.84,"d":1.23,"dp":0.65,"h":190.1,"l":187.2,"o":188,"pc":188.61,"t":1717790401}
type quotePayload struct {
	Current       *float64 `json:"c"`
	Change        *float64 `json:"d"`
	ChangePercent *float64 `json:"dp"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PrevClose     *float64 `json:"pc"`
	Timestamp     *int64   `json:"t"`
}

// decodeQuote validates a quote body. Finnhub answers unknown symbols with
// 200 and a zeroed record, so a missing or zero timestamp is rejected too.
func decodeQuote(b []byte) (quotePayload, error) {
	var p quotePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return quotePayload{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if p.Current == nil {
		return quotePayload{}, fmt.Errorf("%w: missing current price", ErrDecode)
	}
	if p.Timestamp == nil || *p.Timestamp <= 0 {
		return quotePayload{}, fmt.Errorf("%w: missing timestamp", ErrDecode)
	}
	return p, nil
}

func (p quotePayload) quote(symbol string) provider.Quote {
	marketTime := time.Unix(*p.Timestamp, 0).UTC().Format(isoMillis)
	return provider.Quote{
		Symbol:        symbol,
		Price:         p.Current,
		Change:        p.Change,
		ChangePercent: p.ChangePercent,
		MarketTime:    &marketTime,
		Source:        Source,
	}.Normalize()
}

// Quote fetches the latest quote for symbol. It never fails: a missing
// token, transport error, non-2xx status or unusable payload all produce
// an empty quote and a log line.
func (c *Client) Quote(ctx context.Context, symbol string) provider.Quote {
	empty := provider.Empty(symbol, Source)
	if c.token == "" {
		c.missingToken.Do(func() {
			c.logger.Warn("FINNHUB_API_KEY/FINNHUB_TOKEN not set; quotes will be empty")
		})
		return empty
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("token", c.token)
	u := fmt.Sprintf("%s/api/v1/quote?%s", c.baseURL, query.Encode())

	body, err := httpx.Get(ctx, c.httpClient, u, c.header)
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			c.logger.Warn("quote request failed",
				zap.Int("status", se.StatusCode),
				zap.String("status_text", se.Status),
				zap.String("symbol", symbol),
				zap.String("body", se.Body),
			)
		} else {
			c.logger.Error("quote request error", zap.String("symbol", symbol), zap.Error(err))
		}
		return empty
	}

	p, err := decodeQuote(body)
	if err != nil {
		c.logger.Warn("no usable quote in response",
			zap.String("symbol", symbol),
			zap.ByteString("payload", body),
			zap.Error(err),
		)
		return empty
	}
	return p.quote(symbol)
}
