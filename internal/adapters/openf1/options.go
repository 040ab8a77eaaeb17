package openf1

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/gridcast/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetry sets how many times a rate-limited request is attempted and the
// base backoff, doubled after every attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithRequestsPerSecond caps the request rate. Zero disables the limiter.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		switch {
		case rps > 0:
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		case rps == 0:
			c.limiter = rate.NewLimiter(rate.Inf, 0)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
