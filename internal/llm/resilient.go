package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the per-provider circuit breaker.
type BreakerSettings struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// DefaultBreakerSettings returns the breaker settings used when none are configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.6,
	}
}

// ErrProviderUnavailable is returned while a provider's breaker is open.
var ErrProviderUnavailable = errors.New("llm provider temporarily unavailable")

// KeyOrigin tells whose API key a client uses.
type KeyOrigin string

// Key origins.
const (
	KeyOriginServer KeyOrigin = "server"
	KeyOriginCaller KeyOrigin = "caller"
)

// breakerKey identifies one breaker. Caller keys never share a breaker with
// the server's key.
type breakerKey struct {
	provider Provider
	origin   KeyOrigin
}

func (k breakerKey) name() string {
	if k.origin == KeyOriginCaller {
		return fmt.Sprintf("llm-%s-caller", k.provider)
	}
	return fmt.Sprintf("llm-%s", k.provider)
}

// breakerSuccess reports whether a call outcome says the provider is healthy.
// A caller giving up or a rejected key is not a provider failure.
func breakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		IsAuthError(err)
}

func newBreaker(key breakerKey, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker[string] {
	settings := gobreaker.Settings{
		Name:        key.name(),
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && failureRatio >= s.FailureThreshold
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[string](settings)
}

// ResilientClient guards a Client with a circuit breaker shared by every
// client of the same provider and key origin.
type ResilientClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker[string]
}

// NewResilientClient wraps inner with the given breaker.
func NewResilientClient(inner Client, cb *gobreaker.CircuitBreaker[string]) *ResilientClient {
	return &ResilientClient{inner: inner, cb: cb}
}

// GenerateContent generates text through the breaker.
func (c *ResilientClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.execute(func() (string, error) {
		return c.inner.GenerateContent(ctx, prompt, tier)
	})
}

// GenerateJSON generates JSON through the breaker.
func (c *ResilientClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.execute(func() (string, error) {
		return c.inner.GenerateJSON(ctx, prompt, tier)
	})
}

// GetModel returns the wrapped client's model for a tier.
func (c *ResilientClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close closes the wrapped client.
func (c *ResilientClient) Close() error {
	return c.inner.Close()
}

func (c *ResilientClient) execute(fn func() (string, error)) (string, error) {
	out, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, c.cb.Name())
	}
	return out, err
}
