// Package yahoo implements fetcher.Provider on top of the public Yahoo
// Finance JSON endpoints.
package yahoo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"stockcollector/internal/fetcher"
)

const (
	// DefaultBaseURL is the Yahoo Finance query host
	DefaultBaseURL = "https://query2.finance.yahoo.com"

	userAgent = "Mozilla/5.0"
)

// apiError is the error object Yahoo embeds in every response envelope.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// errorEnvelope decodes {"<endpoint>": {"error": {...}}} bodies of any endpoint.
type errorEnvelope map[string]struct {
	Error *apiError `json:"error"`
}

func (e errorEnvelope) description() string {
	for _, body := range e {
		if body.Error != nil {
			if body.Error.Description != "" {
				return body.Error.Description
			}
			return body.Error.Code
		}
	}
	return ""
}

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	Logger     *zap.Logger
}

// Client talks to Yahoo Finance. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

var _ fetcher.Provider = (*Client)(nil)

// NewClient creates a Yahoo Finance client for the given base URL.
func NewClient(baseURL string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http: fetcher.NewHTTPClient(baseURL, fetcher.ClientOptions{
			Timeout:    opts.Timeout,
			RetryCount: opts.RetryCount,
			UserAgent:  userAgent,
			Logger:     logger,
		}),
		logger: logger,
		now:    time.Now,
	}
}

// Ticker returns a lazy handle for symbol. No request is made until one of
// the handle's queries is called.
func (c *Client) Ticker(_ context.Context, symbol string) (fetcher.Ticker, error) {
	if !fetcher.ValidSymbol(symbol) {
		return nil, fetcher.NewValidationError(fmt.Sprintf("invalid symbol %q", symbol))
	}
	return &Ticker{client: c, symbol: symbol}, nil
}

// get issues a GET for path with {symbol} bound, decoding the body into result.
func (c *Client) get(ctx context.Context, path, symbol string, params map[string]string, result any) error {
	var apiErr errorEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(params).
		SetResult(result).
		SetError(&apiErr).
		Get(path)

	if err != nil {
		return fetcher.NewNetworkError(fmt.Errorf("request %s for %s: %w", path, symbol, err))
	}

	if !resp.IsSuccess() {
		fe := fetcher.ClassifyHTTPError(resp.StatusCode())
		if desc := apiErr.description(); desc != "" {
			fe.Message = desc
		}
		return fe
	}

	return nil
}
