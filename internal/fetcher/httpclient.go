package fetcher

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	// Default retry configuration. Retries are off unless a caller asks for
	// them: a failed symbol degrades to an empty result instead.
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second
	defaultTimeout          = 30 * time.Second
)

// ClientOptions configures NewHTTPClient.
type ClientOptions struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
	Logger     *zap.Logger
}

// NewHTTPClient creates a new HTTP client with optional retry logic and exponential backoff
func NewHTTPClient(baseURL string, opts ClientOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	if opts.RetryCount > 0 {
		client.
			SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(defaultRetryWaitTime).
			SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
			AddRetryConditions(retryCondition).
			AddRetryHooks(retryHook(logger))
	}

	return client
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	switch code := r.StatusCode(); {
	case code >= 500:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}

// retryHook logs retry attempts
func retryHook(logger *zap.Logger) func(*resty.Response, error) {
	return func(r *resty.Response, err error) {
		if err != nil {
			logger.Debug("retrying request due to error",
				zap.Any("url", r.Request.URL),
				zap.Int("attempt", r.Request.Attempt),
				zap.Error(err))
			return
		}

		logger.Debug("retrying request due to status code",
			zap.Any("url", r.Request.URL),
			zap.Int("attempt", r.Request.Attempt),
			zap.Int("status_code", r.StatusCode()))
	}
}
