package llm

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/recipick/backend/internal/metrics"
)

// BreakerSettings configures BreakerClient.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a half-open probe.
	OpenTimeout time.Duration
	// Interval resets failure counts while closed.
	Interval time.Duration
}

// DefaultBreakerSettings opens after 5 consecutive failures for 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "llm",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		Interval:            time.Minute,
	}
}

// BreakerClient wraps a Client with a circuit breaker. While open, calls fail
// immediately with gobreaker.ErrOpenState.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker[string]
	name string
}

func NewBreakerClient(next Client, settings BreakerSettings, logger *zap.Logger) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// Callers cancelling their own request says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerClient{next: next, cb: cb, name: settings.Name}
}

func (b *BreakerClient) Complete(ctx context.Context, messages []Message) (string, error) {
	out, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, messages)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return out, err
}

// State exposes the breaker state for health reporting.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// FailFast reports whether retrying within the same request is pointless
// because no client is configured or the circuit is open. A timed-out call is
// an ordinary failure; callers check their own context for cancellation.
func FailFast(err error) bool {
	return errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, gobreaker.ErrOpenState)
}

// Open returns the API client behind a circuit breaker. Without an API key it
// returns Unavailable together with ErrNotConfigured, so callers may either
// run degraded or refuse to start.
func Open(cfg Config, logger *zap.Logger) (Client, error) {
	client, err := NewOpenAIClient(cfg, nil)
	if err != nil {
		return Unavailable{}, err
	}
	return NewBreakerClient(client, DefaultBreakerSettings(), logger), nil
}
