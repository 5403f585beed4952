package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// DefaultEndpointConfigs returns per-route limits. Optimization runs call the
// model several times per request, so they get the strictest budget.
func DefaultEndpointConfigs(optimizeLimit int, optimizeWindow time.Duration) []EndpointConfig {
	burst := max(1, optimizeLimit/5)
	return []EndpointConfig{
		// Tier 1: model-backed operations
		{Path: "/api/v1/optimize", Method: "POST", Limit: optimizeLimit, Window: optimizeWindow, Burst: burst},
		{Path: "/api/v1/optimize/stream", Method: "POST", Limit: optimizeLimit, Window: optimizeWindow, Burst: burst},
		{Path: "/api/v1/jobs/import", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/api/v1/resumes/", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},

		// Tier 2: authentication
		{Path: "/auth/login", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/auth/register", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},

		// Tier 3: writes
		{Path: "/api/v1/resumes", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/resumes/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/resumes/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},

		// Reads fall through to the default limit; /health and /metrics are unlimited
	}
}

// ParseIPList turns a list of addresses into a lookup set, ignoring blanks.
// Entries may themselves be comma-separated.
func ParseIPList(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		for _, ip := range strings.Split(item, ",") {
			ip = strings.TrimSpace(ip)
			if ip != "" {
				result[ip] = true
			}
		}
	}
	return result
}
