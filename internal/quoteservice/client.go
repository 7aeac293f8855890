// Package quoteservice talks to a separate quote aggregation service that
// exposes GET /quotes?symbols=A,B.
package quoteservice

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quoteprovider/internal/httpx"
	"quoteprovider/internal/provider"
)

const Name = "quote-service"

type quotesResponse struct {
	Quotes []provider.Quote `json:"quotes"`
}

// Client implements provider.Provider against a remote quote service.
type Client struct {
	baseURL string
	http    httpx.Doer
	timeout time.Duration
}

// New returns a client for baseURL. A zero timeout leaves only the
// underlying HTTP client's own limits in place.
func New(baseURL string, hc httpx.Doer, timeout time.Duration) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, timeout: timeout}
}

func (c *Client) Name() string { return Name }

// Fetch resolves normalized symbols through the remote service.
// Non-2xx answers surface as *httpx.StatusError, undecodable bodies as
// *httpx.DecodeError; anything else is a transport failure.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	if len(symbols) == 0 {
		return []provider.Quote{}, nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	u := fmt.Sprintf("%s/quotes?%s", c.baseURL, q.Encode())

	var resp quotesResponse
	if err := httpx.GetJSON(ctx, c.http, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("quote service: %w", err)
	}
	out := make([]provider.Quote, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		out = append(out, q.Normalize())
	}
	return out, nil
}
