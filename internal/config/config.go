// Package config loads service configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, with "." replaced by "_".
// server.port is read from RESUME_OPTIMIZER_SERVER_PORT.
const EnvPrefix = "RESUME_OPTIMIZER"

// Config is the complete service configuration.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Auth           AuthConfig           `mapstructure:"auth"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Optimization   OptimizationConfig   `mapstructure:"optimization"`
	Retry          RetryConfig          `mapstructure:"retry"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rateLimit"`
	Log            LogConfig            `mapstructure:"log"`
	Fetch          FetchConfig          `mapstructure:"fetch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	CORSOrigin      string        `mapstructure:"corsOrigin"`
}

// DatabaseConfig holds the PostgreSQL connection.
type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"autoMigrate"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwtSecret"`
	JWTExpirationHours int    `mapstructure:"jwtExpirationHours"`
	BcryptCost         int    `mapstructure:"bcryptCost"`
	PasswordPepper     string `mapstructure:"passwordPepper"`
}

// LLMConfig selects the default provider and holds the server's own keys.
// Empty tier models fall back to the provider defaults.
type LLMConfig struct {
	Provider string         `mapstructure:"provider"`
	APIKeys  APIKeysConfig  `mapstructure:"apiKeys"`
	Models   ProviderModels `mapstructure:"models"`
}

// APIKeysConfig holds one key per provider.
type APIKeysConfig struct {
	Gemini    string `mapstructure:"gemini"`
	Anthropic string `mapstructure:"anthropic"`
}

// ProviderModels holds tier model overrides per provider.
type ProviderModels struct {
	Gemini    TierModels `mapstructure:"gemini"`
	Anthropic TierModels `mapstructure:"anthropic"`
}

// TierModels names the model used for each tier.
type TierModels struct {
	Lite     string `mapstructure:"lite"`
	Standard string `mapstructure:"standard"`
	Advanced string `mapstructure:"advanced"`
}

// OptimizationConfig holds optimization run defaults.
type OptimizationConfig struct {
	DefaultTargetScore   int           `mapstructure:"defaultTargetScore"`
	DefaultMaxIterations int           `mapstructure:"defaultMaxIterations"`
	RunTimeout           time.Duration `mapstructure:"runTimeout"`
}

// RetryConfig bounds retries of scoring and rewrite calls.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"maxAttempts"`
	InitialInterval time.Duration `mapstructure:"initialInterval"`
	MaxInterval     time.Duration `mapstructure:"maxInterval"`
}

// CircuitBreakerConfig configures the per-provider circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Open state duration before half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"defaultLimit"`
	DefaultWindow   time.Duration `mapstructure:"defaultWindow"`
	OptimizeLimit   int           `mapstructure:"optimizeLimit"`
	OptimizeWindow  time.Duration `mapstructure:"optimizeWindow"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FetchConfig configures job posting import.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	UseBrowser     bool          `mapstructure:"useBrowser"`
	BrowserTimeout time.Duration `mapstructure:"browserTimeout"`
}

// legacyEnv maps keys to the unprefixed variable names earlier deployments used.
var legacyEnv = map[string]string{
	"database.url":            "DATABASE_URL",
	"auth.jwtSecret":          "JWT_SECRET",
	"auth.jwtExpirationHours": "JWT_EXPIRATION_HOURS",
	"auth.bcryptCost":         "BCRYPT_COST",
	"auth.passwordPepper":     "PASSWORD_PEPPER",
	"llm.apiKeys.gemini":      "GEMINI_API_KEY",
	"llm.apiKeys.anthropic":   "ANTHROPIC_API_KEY",
	"server.port":             "PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 16*time.Minute)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.corsOrigin", "*")

	v.SetDefault("database.url", "")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.jwtExpirationHours", 24)
	v.SetDefault("auth.bcryptCost", 12)
	v.SetDefault("auth.passwordPepper", "")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.apiKeys.gemini", "")
	v.SetDefault("llm.apiKeys.anthropic", "")
	for _, p := range []string{"gemini", "anthropic"} {
		for _, tier := range []string{"lite", "standard", "advanced"} {
			v.SetDefault("llm.models."+p+"."+tier, "")
		}
	}

	v.SetDefault("optimization.defaultTargetScore", 85)
	v.SetDefault("optimization.defaultMaxIterations", 5)
	v.SetDefault("optimization.runTimeout", 15*time.Minute)

	v.SetDefault("retry.maxAttempts", 3)
	v.SetDefault("retry.initialInterval", 500*time.Millisecond)
	v.SetDefault("retry.maxInterval", 5*time.Second)

	v.SetDefault("circuitBreaker.enabled", true)
	v.SetDefault("circuitBreaker.maxRequests", 3)
	v.SetDefault("circuitBreaker.interval", time.Minute)
	v.SetDefault("circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("circuitBreaker.minRequests", 5)
	v.SetDefault("circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.defaultLimit", 1000)
	v.SetDefault("rateLimit.defaultWindow", time.Minute)
	v.SetDefault("rateLimit.optimizeLimit", 10)
	v.SetDefault("rateLimit.optimizeWindow", time.Hour)
	v.SetDefault("rateLimit.cleanupInterval", 5*time.Minute)
	v.SetDefault("rateLimit.whitelist", []string{})
	v.SetDefault("rateLimit.blacklist", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.useBrowser", false)
	v.SetDefault("fetch.browserTimeout", 45*time.Second)
}

// Load reads configuration. Defaults come first, then the YAML file at path
// when path is not empty, then environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects out-of-range values. Secrets are checked where they are
// used, so commands that need no database or signing key still run.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port must be 1-65535, got %d", c.Server.Port)
	check(c.LLM.Provider == "gemini" || c.LLM.Provider == "anthropic",
		"llm.provider must be gemini or anthropic, got %q", c.LLM.Provider)
	check(c.Optimization.DefaultTargetScore >= 0 && c.Optimization.DefaultTargetScore <= 100,
		"optimization.defaultTargetScore must be 0-100, got %d", c.Optimization.DefaultTargetScore)
	check(c.Optimization.DefaultMaxIterations >= 1 && c.Optimization.DefaultMaxIterations <= 10,
		"optimization.defaultMaxIterations must be 1-10, got %d", c.Optimization.DefaultMaxIterations)
	check(c.Optimization.RunTimeout >= 0, "optimization.runTimeout must not be negative")
	// A run that outlives the write deadline loses its response but keeps writing
	check(c.Server.WriteTimeout <= 0 || c.Optimization.RunTimeout <= 0 || c.Server.WriteTimeout > c.Optimization.RunTimeout,
		"server.writeTimeout (%s) must exceed optimization.runTimeout (%s)", c.Server.WriteTimeout, c.Optimization.RunTimeout)
	check(c.Retry.MaxAttempts >= 1, "retry.maxAttempts must be at least 1, got %d", c.Retry.MaxAttempts)
	check(c.Retry.InitialInterval > 0 && c.Retry.MaxInterval >= c.Retry.InitialInterval,
		"retry intervals must be positive with maxInterval >= initialInterval")
	check(c.CircuitBreaker.FailureThreshold > 0 && c.CircuitBreaker.FailureThreshold <= 1,
		"circuitBreaker.failureThreshold must be in (0,1], got %v", c.CircuitBreaker.FailureThreshold)
	check(!c.RateLimit.Enabled || (c.RateLimit.DefaultLimit > 0 && c.RateLimit.DefaultWindow > 0),
		"rateLimit.defaultLimit and rateLimit.defaultWindow must be positive")
	check(c.Log.Format == "json" || c.Log.Format == "text", "log.format must be json or text, got %q", c.Log.Format)

	return errors.Join(errs...)
}
