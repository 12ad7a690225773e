// Package httpx provides the pooled, retrying HTTP client shared by the Arr
// and Emby gateways.
package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"arremsync/internal/logging"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = time.Second
	defaultMaxBackoff = 10 * time.Second
)

// Options configures NewClient and NewTransport.
type Options struct {
	// MaxRetries is the number of retries after the first attempt. Negative
	// values disable retries.
	MaxRetries        int
	Backoff           time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
	// Base is the underlying transport; a pooled *http.Transport when nil.
	Base   http.RoundTripper
	Logger *slog.Logger
	// Sleep replaces the timer-based wait between attempts, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Transport retries idempotent requests that fail with 429, 5xx gateway
// statuses, or network errors.
type Transport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// NewClient returns an http.Client backed by a retrying Transport. Timeouts
// are applied per call through request contexts.
func NewClient(opts Options) *http.Client {
	return &http.Client{Transport: NewTransport(opts)}
}

// NewTransport builds a Transport from opts, filling in defaults.
func NewTransport(opts Options) *Transport {
	t := &Transport{
		base:       opts.Base,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
		sleep:      opts.Sleep,
		logger:     logging.NewComponentLogger(opts.Logger, "http"),
	}
	if t.base == nil {
		t.base = pooledTransport()
	}
	if t.maxRetries < 0 {
		t.maxRetries = 0
	}
	if t.backoff < 0 {
		t.backoff = 0
	}
	if t.maxBackoff <= 0 {
		t.maxBackoff = defaultMaxBackoff
	}
	if t.sleep == nil {
		t.sleep = sleepContext
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return t
}

// DefaultOptions mirrors the retry policy used when no config is supplied.
func DefaultOptions() Options {
	return Options{MaxRetries: defaultMaxRetries, Backoff: defaultBackoff, MaxBackoff: defaultMaxBackoff}
}

func pooledTransport() *http.Transport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConns = 20
	base.MaxIdleConnsPerHost = 10
	base.IdleConnTimeout = 90 * time.Second
	return base
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	retries := 0
	if idempotent(req.Method) {
		retries = t.maxRetries
	}

	for attempt := 0; ; attempt++ {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := t.base.RoundTrip(req)
		delay, retry := t.retryDelay(ctx, resp, err, attempt+1)
		if !retry || attempt >= retries {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
		}
		t.logger.Debug("retrying request",
			logging.String("method", req.Method),
			logging.String("url", redact(req)),
			logging.Int("attempt", attempt+1),
			logging.Duration("delay", delay),
			logging.String("reason", retryReason(resp, err)),
		)
		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (t *Transport) retryDelay(ctx context.Context, resp *http.Response, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, false
		}
		var netErr net.Error
		var opErr *net.OpError
		if errors.As(err, &netErr) || errors.As(err, &opErr) {
			return t.backoffDelay(attempt), true
		}
		return 0, false
	}
	if !RetryableStatus(resp.StatusCode) {
		return 0, false
	}
	if after, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
		return t.capDelay(after), true
	}
	return t.backoffDelay(attempt), true
}

// RetryableStatus reports whether a response status is worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// backoffDelay doubles the base delay per attempt: 1 -> base, 2 -> base*2, 3 -> base*4.
func (t *Transport) backoffDelay(attempt int) time.Duration {
	if t.backoff <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := t.backoff
	for i := 1; i < attempt; i++ {
		if delay > t.maxBackoff/2 {
			return t.maxBackoff
		}
		delay *= 2
	}
	return t.capDelay(delay)
}

func (t *Transport) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > t.maxBackoff {
		return t.maxBackoff
	}
	return delay
}

func idempotent(method string) bool {
	switch method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

func retryReason(resp *http.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	return "status " + strconv.Itoa(resp.StatusCode)
}

// redact drops the query string, which may carry api keys.
func redact(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
