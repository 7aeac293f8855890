package finnhub

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// Source tags quotes produced by this package.
	Source = "finnhub"

	baseURL        = "https://finnhub.io"
	defaultTimeout = 8 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=finnhub_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Finnhub quote client. It implements provider.Quoter.
type Client struct {
	// token authenticates every request; empty disables upstream calls.
	token string
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// timeout bounds a single quote call.
	timeout time.Duration
	logger  *zap.Logger

	missingToken sync.Once
}

// ClientOption is a configuration option for the Finnhub client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeout bounds each quote call. Non-positive values keep the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new Finnhub client.
func NewClient(token string, options ...ClientOption) *Client {
	c := &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		timeout:    defaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(c)
	}
	c.logger = c.logger.With(zap.String("provider", Source))
	return c
}

func (c *Client) Name() string { return Source }
