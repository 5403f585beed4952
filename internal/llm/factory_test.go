package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func newTestFactory(opts FactoryOptions) (*Factory, *[]*stubClient) {
	f := NewFactory(opts)
	var built []*stubClient
	f.newClient = func(_ context.Context, config *Config, apiKey string) (Client, error) {
		c := &stubClient{config: config, apiKey: apiKey}
		built = append(built, c)
		return c, nil
	}
	return f, &built
}

func TestFactory_ClientFor(t *testing.T) {
	t.Run("server key and default provider", func(t *testing.T) {
		f, built := newTestFactory(FactoryOptions{
			APIKeys: map[Provider]string{ProviderGemini: "server-key"},
		})

		client, err := f.ClientFor(context.Background(), ModelConfig{})
		require.NoError(t, err)
		require.Len(t, *built, 1)
		assert.Equal(t, "server-key", (*built)[0].apiKey)
		assert.Equal(t, ProviderGemini, (*built)[0].config.Provider)
		assert.IsType(t, &stubClient{}, client)
	})

	t.Run("request key wins and model overrides all tiers", func(t *testing.T) {
		f, built := newTestFactory(FactoryOptions{
			APIKeys: map[Provider]string{ProviderAnthropic: "server-key"},
		})

		_, err := f.ClientFor(context.Background(), ModelConfig{
			Provider: ProviderAnthropic,
			Model:    "claude-custom",
			APIKeys:  map[Provider]string{ProviderAnthropic: "user-key"},
		})
		require.NoError(t, err)
		got := (*built)[0]
		assert.Equal(t, "user-key", got.apiKey)
		assert.Equal(t, ProviderAnthropic, got.config.Provider)
		assert.Equal(t, "claude-custom", got.config.GetModel(TierAdvanced))
	})

	t.Run("missing key", func(t *testing.T) {
		f, _ := newTestFactory(FactoryOptions{})

		_, err := f.ClientFor(context.Background(), ModelConfig{Provider: ProviderAnthropic})
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("breaker wraps and is shared per provider", func(t *testing.T) {
		f, _ := newTestFactory(FactoryOptions{
			APIKeys: map[Provider]string{ProviderGemini: "k"},
			Breaker: testBreakerSettings(),
			Logger:  discardLogger(),
		})

		a, err := f.ClientFor(context.Background(), ModelConfig{})
		require.NoError(t, err)
		b, err := f.ClientFor(context.Background(), ModelConfig{})
		require.NoError(t, err)

		ra, ok := a.(*ResilientClient)
		require.True(t, ok)
		rb, ok := b.(*ResilientClient)
		require.True(t, ok)
		assert.Same(t, ra.cb, rb.cb)
	})
}

// keyedFactory builds clients that fail with err when handed the key "bad"
func keyedFactory(opts FactoryOptions, err error) *Factory {
	f := NewFactory(opts)
	f.newClient = func(_ context.Context, config *Config, apiKey string) (Client, error) {
		c := &stubClient{config: config, apiKey: apiKey}
		if apiKey == "bad" {
			c.generate = func(context.Context, string) (string, error) { return "", err }
		}
		return c, nil
	}
	return f
}

func callWithKey(t *testing.T, f *Factory, key string) error {
	t.Helper()
	mc := ModelConfig{}
	if key != "" {
		mc.APIKeys = map[Provider]string{ProviderGemini: key}
	}
	client, err := f.ClientFor(context.Background(), mc)
	require.NoError(t, err)
	defer client.Close()
	_, err = client.GenerateJSON(context.Background(), "p", TierStandard)
	return err
}

func TestFactory_CallerKeysDoNotBlockOthers(t *testing.T) {
	opts := FactoryOptions{
		APIKeys: map[Provider]string{ProviderGemini: "server-key"},
		Breaker: testBreakerSettings(),
		Logger:  discardLogger(),
	}

	t.Run("rejected caller key never opens the breaker", func(t *testing.T) {
		f := keyedFactory(opts, &googleapi.Error{Code: http.StatusUnauthorized})
		for i := 0; i < 5; i++ {
			err := callWithKey(t, f, "bad")
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrProviderUnavailable)
		}
		assert.NoError(t, callWithKey(t, f, "good"))
		assert.NoError(t, callWithKey(t, f, ""))
	})

	t.Run("failing caller key leaves the server breaker closed", func(t *testing.T) {
		f := keyedFactory(opts, errors.New("upstream 500"))
		for i := 0; i < 5; i++ {
			require.Error(t, callWithKey(t, f, "bad"))
		}
		assert.ErrorIs(t, callWithKey(t, f, "bad"), ErrProviderUnavailable)
		assert.NoError(t, callWithKey(t, f, ""))
	})
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{Provider: "openai"}, "k")
	assert.Error(t, err)
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultAnthropicConfig(), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
