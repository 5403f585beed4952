package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/resume-optimizer/internal/config"
	"github.com/jonathan/resume-optimizer/internal/fetch"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/server/ratelimit"
)

// loadConfig reads the configuration named by --config and builds the logger
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func requireDatabaseURL(cfg *config.Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL is required (database.url or DATABASE_URL)")
	}
	return nil
}

// factoryOptions maps the llm section onto the client factory
func factoryOptions(cfg *config.Config, logger *slog.Logger) llm.FactoryOptions {
	provider, ok := llm.ParseProvider(cfg.LLM.Provider)
	if !ok {
		provider = llm.ProviderGemini
	}

	models := map[llm.Provider]*llm.Config{}
	for p, tiers := range map[llm.Provider]config.TierModels{
		llm.ProviderGemini:    cfg.LLM.Models.Gemini,
		llm.ProviderAnthropic: cfg.LLM.Models.Anthropic,
	} {
		c := llm.DefaultConfigFor(p)
		for tier, model := range map[llm.ModelTier]string{
			llm.TierLite:     tiers.Lite,
			llm.TierStandard: tiers.Standard,
			llm.TierAdvanced: tiers.Advanced,
		} {
			if model != "" {
				c = c.WithModel(tier, model)
			}
		}
		models[p] = c
	}

	keys := map[llm.Provider]string{}
	if cfg.LLM.APIKeys.Gemini != "" {
		keys[llm.ProviderGemini] = cfg.LLM.APIKeys.Gemini
	}
	if cfg.LLM.APIKeys.Anthropic != "" {
		keys[llm.ProviderAnthropic] = cfg.LLM.APIKeys.Anthropic
	}

	cb := cfg.CircuitBreaker
	return llm.FactoryOptions{
		DefaultProvider: provider,
		Models:          models,
		APIKeys:         keys,
		Breaker: llm.BreakerSettings{
			Enabled:          cb.Enabled,
			MaxRequests:      cb.MaxRequests,
			Interval:         cb.Interval,
			Timeout:          cb.Timeout,
			MinRequests:      cb.MinRequests,
			FailureThreshold: cb.FailureThreshold,
		},
		Logger: logger,
	}
}

func retryPolicy(cfg *config.Config) optimize.RetryPolicy {
	return optimize.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}
}

func rateLimitConfig(cfg *config.Config) *ratelimit.Config {
	rl := cfg.RateLimit
	return &ratelimit.Config{
		Enabled:         rl.Enabled,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       ratelimit.ParseIPList(rl.Whitelist),
		Blacklist:       ratelimit.ParseIPList(rl.Blacklist),
		EndpointConfigs: ratelimit.DefaultEndpointConfigs(rl.OptimizeLimit, rl.OptimizeWindow),
	}
}

// postingFetcher builds the job posting fetcher, with browser rendering when enabled
func postingFetcher(cfg *config.Config, logger *slog.Logger) *fetch.Fetcher {
	opts := fetch.DefaultOptions()
	if cfg.Fetch.Timeout > 0 {
		opts.Timeout = cfg.Fetch.Timeout
	}
	var render fetch.Renderer
	if cfg.Fetch.UseBrowser {
		render = fetch.BrowserRenderer(cfg.Fetch.BrowserTimeout)
	}
	return fetch.NewFetcher(opts, render, logger)
}
