package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sony/gobreaker/v2"
)

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	DefaultProvider Provider
	// Models overrides the default tier models per provider
	Models map[Provider]*Config
	// APIKeys are the server's own provider keys, used when a request brings none
	APIKeys map[Provider]string
	Breaker BreakerSettings
	Logger  *slog.Logger
}

// Factory builds provider clients for a ModelConfig.
type Factory struct {
	defaultProvider Provider
	models          map[Provider]*Config
	apiKeys         map[Provider]string
	breaker         BreakerSettings
	logger          *slog.Logger

	newClient func(ctx context.Context, config *Config, apiKey string) (Client, error)

	mu       sync.Mutex
	breakers map[breakerKey]*gobreaker.CircuitBreaker[string]
}

// NewFactory creates a Factory.
func NewFactory(opts FactoryOptions) *Factory {
	provider := opts.DefaultProvider
	if provider == "" {
		provider = ProviderGemini
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		defaultProvider: provider,
		models:          opts.Models,
		apiKeys:         opts.APIKeys,
		breaker:         opts.Breaker,
		logger:          logger,
		newClient:       NewClient,
		breakers:        make(map[breakerKey]*gobreaker.CircuitBreaker[string]),
	}
}

// ClientFor returns a client for the provider and model in mc. Keys supplied
// in mc take precedence over the server's keys. The caller must Close it.
func (f *Factory) ClientFor(ctx context.Context, mc ModelConfig) (Client, error) {
	provider := mc.Provider
	if provider == "" {
		provider = f.defaultProvider
	}

	config := f.configFor(provider)
	if mc.Model != "" {
		config = config.WithAllTiers(mc.Model)
	}

	apiKey, origin := mc.APIKeys[provider], KeyOriginCaller
	if apiKey == "" {
		apiKey, origin = f.apiKeys[provider], KeyOriginServer
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, provider)
	}

	client, err := f.newClient(ctx, config, apiKey)
	if err != nil {
		return nil, err
	}
	if !f.breaker.Enabled {
		return client, nil
	}
	return NewResilientClient(client, f.breakerFor(breakerKey{provider: provider, origin: origin})), nil
}

func (f *Factory) configFor(provider Provider) *Config {
	if c, ok := f.models[provider]; ok && c != nil {
		return c.clone()
	}
	return DefaultConfigFor(provider)
}

func (f *Factory) breakerFor(key breakerKey) *gobreaker.CircuitBreaker[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.breakers[key]
	if !ok {
		cb = newBreaker(key, f.breaker, f.logger)
		f.breakers[key] = cb
	}
	return cb
}

// ClientSource resolves a Client for a request's ModelConfig.
type ClientSource interface {
	ClientFor(ctx context.Context, mc ModelConfig) (Client, error)
}

// ClientSourceFunc adapts a function to ClientSource.
type ClientSourceFunc func(ctx context.Context, mc ModelConfig) (Client, error)

// ClientFor calls f.
func (f ClientSourceFunc) ClientFor(ctx context.Context, mc ModelConfig) (Client, error) {
	return f(ctx, mc)
}
