// Package llm provides centralized LLM configuration and client abstractions.
// Callers select a provider and models per request through ModelConfig; no
// package-level state decides which model a request uses.
package llm

import (
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// ModelTier represents the complexity/capability level of a model.
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction, basic summarization
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: scoring, parsing, structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: tailoring and rewriting
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider.
type Provider string

// Provider constants define supported LLM providers.
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderAnthropic is the Anthropic/Claude provider
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider maps a provider name to a Provider, reporting whether it is supported.
func ParseProvider(name string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(name))) {
	case ProviderGemini:
		return ProviderGemini, true
	case ProviderAnthropic:
		return ProviderAnthropic, true
	default:
		return "", false
	}
}

// Config holds the model configuration for one provider.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (Gemini).
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration.
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// DefaultAnthropicConfig returns the default Anthropic configuration.
func DefaultAnthropicConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Models: map[ModelTier]string{
			TierLite:     "claude-3-5-haiku-latest",
			TierStandard: "claude-sonnet-4-20250514",
			TierAdvanced: "claude-opus-4-20250514",
		},
	}
}

// DefaultConfigFor returns the default configuration for a provider.
func DefaultConfigFor(p Provider) *Config {
	if p == ProviderAnthropic {
		return DefaultAnthropicConfig()
	}
	return DefaultGeminiConfig()
}

// GetModel returns the model name for a given tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.clone()
	newConfig.Models[tier] = model
	return newConfig
}

// WithAllTiers returns a new Config that uses one model for every tier.
func (c *Config) WithAllTiers(model string) *Config {
	newConfig := c.clone()
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		newConfig.Models[tier] = model
	}
	return newConfig
}

func (c *Config) clone() *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}

// ModelConfig is the per-request model capability: which provider and model
// to use, caller-supplied API keys, and prompt overrides. It is passed
// explicitly to every collaborator call.
type ModelConfig struct {
	Provider      Provider
	Model         string
	APIKeys       map[Provider]string
	CustomPrompts map[string]string
}

// ModelConfigFrom converts the request payload into a ModelConfig.
// Unknown providers are dropped so the server default applies.
func ModelConfigFrom(s *types.ModelSettings) ModelConfig {
	var mc ModelConfig
	if s == nil {
		return mc
	}
	if p, ok := ParseProvider(s.Provider); ok {
		mc.Provider = p
	}
	mc.Model = s.Model
	if len(s.APIKeys) > 0 {
		mc.APIKeys = make(map[Provider]string, len(s.APIKeys))
		for name, key := range s.APIKeys {
			if p, ok := ParseProvider(name); ok && key != "" {
				mc.APIKeys[p] = key
			}
		}
	}
	if len(s.CustomPrompts) > 0 {
		mc.CustomPrompts = make(map[string]string, len(s.CustomPrompts))
		for k, v := range s.CustomPrompts {
			mc.CustomPrompts[k] = v
		}
	}
	return mc
}

// Prompt returns the caller's override for a prompt key, or fallback.
func (mc ModelConfig) Prompt(key, fallback string) string {
	if v, ok := mc.CustomPrompts[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
