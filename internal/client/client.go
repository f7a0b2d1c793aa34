package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/liam996405/uv-index-service/internal/observability"
)

// FeedClient fetches the raw UV feed document.
type FeedClient interface {
	FetchFeed(ctx context.Context) ([]byte, error)
}

var (
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotFound        = errors.New("feed not found")
	ErrEmptyBody       = errors.New("empty feed body")
	ErrCircuitOpen     = errors.New("circuit breaker open")
)

// maxBodyBytes caps the feed document; the real one is a few kilobytes.
const maxBodyBytes = 4 << 20

// ARPANSAClient fetches the ARPANSA uvvalues.xml document with per-attempt
// timeouts, retry with exponential backoff, and an optional circuit breaker.
type ARPANSAClient struct {
	url            string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *gobreaker.CircuitBreaker
}

// NewARPANSAClient returns a client with three attempts and default backoff.
func NewARPANSAClient(url string, timeout time.Duration) (*ARPANSAClient, error) {
	return NewARPANSAClientWithRetry(url, timeout, 3, 100*time.Millisecond, 2*time.Second)
}

// NewARPANSAClientWithRetry returns a client making up to retryAttempts attempts, each bounded by timeout.
func NewARPANSAClientWithRetry(url string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) (*ARPANSAClient, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("feed URL is required")
	}
	if retryAttempts <= 0 {
		retryAttempts = 1
	}

	return &ARPANSAClient{
		url:            url,
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		client:         &http.Client{},
	}, nil
}

// BreakerConfig configures the upstream circuit breaker.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	OnStateChange    func(name string, from, to gobreaker.State)
}

// SetCircuitBreaker wraps each upstream attempt in a gobreaker circuit breaker.
// Call before the client is shared between goroutines.
func (c *ARPANSAClient) SetCircuitBreaker(cfg BreakerConfig) {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	threshold := uint32(cfg.FailureThreshold)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "arpansa_feed",
		MaxRequests: uint32(cfg.SuccessThreshold),
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cfg.OnStateChange,
	})
}

// BreakerState returns the current breaker state, or StateClosed when no breaker is set.
func (c *ARPANSAClient) BreakerState() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// FetchFeed returns the raw feed body, retrying retryable failures.
func (c *ARPANSAClient) FetchFeed(ctx context.Context) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.attempt(ctx)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !c.isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *ARPANSAClient) attempt(ctx context.Context) ([]byte, error) {
	if c.breaker == nil {
		return c.callAPI(ctx)
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.callAPI(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *ARPANSAClient) callAPI(ctx context.Context) ([]byte, error) {
	start := time.Now()

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.buildRequest(reqCtx)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.UpstreamCallsTotal.WithLabelValues("error").Inc()
		observability.UpstreamDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(status).Inc()
	observability.UpstreamDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

func (c *ARPANSAClient) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "connection") {
		return true
	}

	return false
}

func (c *ARPANSAClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if c.retryMaxDelay > 0 && delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func (c *ARPANSAClient) buildRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	return req, nil
}

func (c *ARPANSAClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", ErrNotFound, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: HTTP %d", resp.StatusCode)
	}

	return nil
}

func extractCorrelationID(ctx context.Context) string {
	if corrID, ok := ctx.Value(observability.CorrelationIDKey).(string); ok {
		return corrID
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
