// Package alphavantage implements fetcher.Provider on top of the Alpha
// Vantage query API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"stockcollector/internal/fetcher"
)

// DefaultBaseURL is the Alpha Vantage query endpoint
const DefaultBaseURL = "https://www.alphavantage.co/query"

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	Logger     *zap.Logger
}

// Client talks to Alpha Vantage. It is safe for concurrent use.
type Client struct {
	apiKey string
	http   *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

var _ fetcher.Provider = (*Client)(nil)

// NewClient creates an Alpha Vantage client authenticating with apiKey.
func NewClient(baseURL, apiKey string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey: apiKey,
		http: fetcher.NewHTTPClient(baseURL, fetcher.ClientOptions{
			Timeout:    opts.Timeout,
			RetryCount: opts.RetryCount,
			Logger:     logger,
		}),
		logger: logger,
		now:    time.Now,
	}
}

// Ticker returns a lazy handle for symbol, e.g. IBM or RELIANCE.BSE.
func (c *Client) Ticker(_ context.Context, symbol string) (fetcher.Ticker, error) {
	if !fetcher.ValidSymbol(symbol) {
		return nil, fetcher.NewValidationError(fmt.Sprintf("invalid symbol %q", symbol))
	}
	return &Ticker{client: c, symbol: symbol}, nil
}

// query calls function for symbol and returns the top-level JSON object.
// Alpha Vantage reports failures with HTTP 200 and an "Error Message",
// "Note" or "Information" field instead of a status code.
func (c *Client) query(ctx context.Context, function, symbol string, params map[string]string) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":   c.apiKey,
			"function": function,
			"symbol":   symbol,
		}).
		SetQueryParams(params).
		SetResult(&body).
		Get("")

	if err != nil {
		return nil, fetcher.NewNetworkError(fmt.Errorf("%s for %s: %w", function, symbol, err))
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if msg := message(body, "Error Message"); msg != "" {
		return nil, fetcher.NewClientError(http.StatusBadRequest, fmt.Sprintf("%s for %s: %s", function, symbol, msg))
	}
	for _, key := range []string{"Note", "Information"} {
		if msg := message(body, key); msg != "" {
			fe := fetcher.NewRateLimitError(http.StatusTooManyRequests)
			fe.Message = msg
			return nil, fe
		}
	}
	return body, nil
}

func message(body map[string]json.RawMessage, key string) string {
	raw, ok := body[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

// number parses Alpha Vantage's string encoded numbers. "None", "-" and
// empty strings are missing.
func number(s string) (float64, bool) {
	switch s {
	case "", "None", "-", "null":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
