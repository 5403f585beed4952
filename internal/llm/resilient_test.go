package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResilientClient_TripsAfterFailures(t *testing.T) {
	inner := &stubClient{generate: func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	}}
	client := NewResilientClient(inner, newBreaker(breakerKey{provider: ProviderGemini, origin: KeyOriginServer}, testBreakerSettings(), discardLogger()))

	for i := 0; i < 2; i++ {
		_, err := client.GenerateJSON(context.Background(), "p", TierStandard)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrProviderUnavailable)
	}

	_, err := client.GenerateJSON(context.Background(), "p", TierStandard)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, int32(2), inner.calls.Load(), "open breaker must not reach the provider")
}

func TestResilientClient_CancellationDoesNotTrip(t *testing.T) {
	inner := &stubClient{generate: func(context.Context, string) (string, error) {
		return "", context.Canceled
	}}
	client := NewResilientClient(inner, newBreaker(breakerKey{provider: ProviderGemini, origin: KeyOriginServer}, testBreakerSettings(), discardLogger()))

	for i := 0; i < 5; i++ {
		_, err := client.GenerateContent(context.Background(), "p", TierLite)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, int32(5), inner.calls.Load())
}

func TestResilientClient_PassesThrough(t *testing.T) {
	inner := &stubClient{config: DefaultConfig()}
	client := NewResilientClient(inner, newBreaker(breakerKey{provider: ProviderGemini, origin: KeyOriginServer}, testBreakerSettings(), discardLogger()))

	out, err := client.GenerateContent(context.Background(), "p", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "gemini-2.5-pro", client.GetModel(TierAdvanced))
	require.NoError(t, client.Close())
	assert.True(t, inner.closed)
}

func TestResilientClient_RejectedKeyDoesNotTrip(t *testing.T) {
	inner := &stubClient{generate: func(context.Context, string) (string, error) {
		return "", fmt.Errorf("failed to generate content: %w", &googleapi.Error{Code: http.StatusUnauthorized, Message: "invalid key"})
	}}
	client := NewResilientClient(inner, newBreaker(breakerKey{provider: ProviderGemini, origin: KeyOriginServer}, testBreakerSettings(), discardLogger()))

	for i := 0; i < 5; i++ {
		_, err := client.GenerateJSON(context.Background(), "p", TierStandard)
		require.Error(t, err)
		assert.True(t, IsAuthError(err))
		assert.NotErrorIs(t, err, ErrProviderUnavailable)
	}
	assert.Equal(t, int32(5), inner.calls.Load())
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, true},
		{"forbidden wrapped", fmt.Errorf("call: %w", &googleapi.Error{Code: http.StatusForbidden}), true},
		{"gemini invalid key", &googleapi.Error{Code: http.StatusBadRequest, Message: "API key not valid. Please pass a valid API key."}, true},
		{"other bad request", &googleapi.Error{Code: http.StatusBadRequest, Message: "prompt too long"}, false},
		{"server error", &googleapi.Error{Code: http.StatusServiceUnavailable}, false},
		{"sentinel", ErrUnauthorized, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthError(tt.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(fmt.Errorf("x: %w", &googleapi.Error{Code: http.StatusTooManyRequests})))
	assert.Equal(t, 0, StatusCode(errors.New("boom")))
}
