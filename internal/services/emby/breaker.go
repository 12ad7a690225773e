package emby

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"arremsync/internal/logging"
	"arremsync/internal/services"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30 * time.Second
)

// breaker stops hammering Emby after consecutive failures. Rejected
// requests (4xx) do not count against it.
type breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

func newBreaker(failures int, openFor time.Duration, c *Client) *breaker {
	if failures <= 0 {
		failures = defaultBreakerFailures
	}
	if openFor <= 0 {
		openFor = defaultBreakerOpen
	}
	threshold := uint32(failures)
	return &breaker{cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "emby",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, services.ErrRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})}
}

func (b *breaker) run(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return services.Wrap(services.ErrUnavailable, "emby", "circuit breaker", "emby temporarily disabled after repeated failures", err)
	}
	return err
}
