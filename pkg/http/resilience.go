package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ResilientClient wraps Client with bounded retries, exponential backoff and
// a circuit breaker for outbound provider calls.
type ResilientClient struct {
	client  *Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewResilientClient builds a resilient client. name labels the breaker.
func NewResilientClient(name string, backoff BackoffConfig, opts ...ClientOption) *ResilientClient {
	if backoff.MaxRetries < 0 {
		backoff.MaxRetries = 0
	}
	if backoff.InitialInterval <= 0 {
		backoff.InitialInterval = 500 * time.Millisecond
	}
	if backoff.MaxInterval <= 0 {
		backoff.MaxInterval = 5 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &ResilientClient{
		client:  NewClient(opts...),
		backoff: backoff,
		circuit: cb,
	}
}

// SendAndParse sends the request through the breaker, retrying transient
// failures (transport errors, 429, 5xx). Non-retryable statuses are returned
// to the caller as *StatusError.
func (r *ResilientClient) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := r.circuit.Execute(func() (interface{}, error) {
			return nil, r.client.SendAndParse(ctx, opts, dest)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("circuit breaker open: %w", err)
		}
		if !retryable(err) {
			return err
		}

		lastErr = err
		if attempt >= r.backoff.MaxRetries {
			return lastErr
		}

		delay := r.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > r.backoff.MaxInterval {
			delay = r.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	// transport-level failure
	return true
}
