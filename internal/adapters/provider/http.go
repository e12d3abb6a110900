package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/pkg/logger"
	"github.com/okian/xfpl/pkg/metrics"
)

// HTTPProvider fetches the bootstrap-static document over HTTP behind a
// rate limiter and a circuit breaker.
type HTTPProvider struct {
	url     string
	opts    options
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// NewHTTPProvider creates a provider for url.
func NewHTTPProvider(url string, opts ...Option) *HTTPProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &HTTPProvider{
		url:     url,
		opts:    o,
		client:  o.client,
		limiter: rate.NewLimiter(rate.Limit(o.rps), o.burst),
		logger:  o.logger,
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: o.timeout}
	}
	if p.logger == nil {
		p.logger = logger.Default().Named("provider")
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fpl-bootstrap",
		MaxRequests: 1,
		Timeout:     o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.UpdateProviderBreakerState(breakerGauge(to))
		},
	})
	metrics.UpdateProviderBreakerState(metrics.BreakerClosed)

	return p
}

// Fetch downloads and decodes the current player statistics.
func (p *HTTPProvider) Fetch(ctx context.Context) ([]model.PlayerStatRecord, error) {
	start := time.Now()

	if err := p.limiter.Wait(ctx); err != nil {
		metrics.RecordProviderError("rate_limited")
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrFetch, err)
	}

	body, err := p.breaker.Execute(func() (interface{}, error) {
		return p.get(ctx)
	})
	if err != nil {
		metrics.RecordProviderError(fetchReason(err))
		metrics.RecordErrorLatency("provider", "fetch", float64(time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	records, err := Decode(body.([]byte), p.opts.includeZeroMinutes)
	if err != nil {
		metrics.RecordProviderError("decode")
		return nil, err
	}

	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordProviderFetch(ms, len(records))
	p.logger.Info(ctx, "fetched raw stats",
		logger.String("url", p.url),
		logger.Int("records", len(records)),
		logger.Float64("latency_ms", ms),
	)
	return records, nil
}

func (p *HTTPProvider) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.opts.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: p.url}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// State returns the breaker state name.
func (p *HTTPProvider) State() string {
	return p.breaker.State().String()
}

func fetchReason(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "transport"
	}
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}
