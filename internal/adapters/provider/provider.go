// Package provider fetches raw per-player season statistics from the FPL
// bootstrap-static feed or from a local file.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/pkg/logger"
)

// Default provider configuration constants.
const (
	defaultUserAgent       = "xfpl/1.0"
	defaultTimeout         = 15 * time.Second
	defaultRPS             = 1.0
	defaultBurst           = 1
	defaultBreakerFailures = 3
	defaultBreakerTimeout  = 60 * time.Second
	maxBodyBytes           = 64 << 20
)

// Provider returns the current raw statistics of every player.
type Provider interface {
	Fetch(ctx context.Context) ([]model.PlayerStatRecord, error)
}

// Option applies a configuration option to a provider.
type Option func(*options)

type options struct {
	client             *http.Client
	userAgent          string
	timeout            time.Duration
	rps                float64
	burst              int
	breakerFailures    uint32
	breakerTimeout     time.Duration
	includeZeroMinutes bool
	logger             logger.Logger
}

func defaultOptions() options {
	return options{
		userAgent:       defaultUserAgent,
		timeout:         defaultTimeout,
		rps:             defaultRPS,
		burst:           defaultBurst,
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
	}
}

// WithHTTPClient sets the client used for upstream requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithTimeout bounds a single upstream request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRateLimit limits upstream requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps > 0 {
			o.rps = rps
		}
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithBreaker opens the circuit after failures consecutive errors for timeout.
func WithBreaker(failures int, timeout time.Duration) Option {
	return func(o *options) {
		if failures > 0 {
			o.breakerFailures = uint32(failures)
		}
		if timeout > 0 {
			o.breakerTimeout = timeout
		}
	}
}

// WithIncludeZeroMinutes keeps players without minutes in the output.
func WithIncludeZeroMinutes(include bool) Option {
	return func(o *options) {
		o.includeZeroMinutes = include
	}
}

// WithLogger sets the provider logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
