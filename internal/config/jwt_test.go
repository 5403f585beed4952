package config

import (
	"strings"
	"testing"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		hours   int
		wantErr string
	}{
		{name: "valid", secret: "s3cret", hours: 24},
		{name: "one hour", secret: "s3cret", hours: 1},
		{name: "long lived", secret: "s3cret", hours: 720},
		{name: "missing secret", secret: "", hours: 24, wantErr: "JWT secret is required"},
		{name: "zero hours", secret: "s3cret", hours: 0, wantErr: "at least 1 hour"},
		{name: "negative hours", secret: "s3cret", hours: -5, wantErr: "at least 1 hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := NewJWTConfig(tt.secret, tt.hours)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("NewJWTConfig() expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("NewJWTConfig() error = %v, want %q", err, tt.wantErr)
				}
				if config != nil {
					t.Error("NewJWTConfig() should return nil config on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTConfig() unexpected error: %v", err)
			}
			if config.Secret != tt.secret || config.ExpirationHours != tt.hours {
				t.Errorf("NewJWTConfig() = %+v", config)
			}
		})
	}
}

func TestConfig_JWT(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{JWTSecret: "abc", JWTExpirationHours: 8}}
	config, err := cfg.JWT()
	if err != nil {
		t.Fatalf("JWT() error = %v", err)
	}
	if config.Secret != "abc" || config.ExpirationHours != 8 {
		t.Errorf("JWT() = %+v", config)
	}

	if _, err := (&Config{}).JWT(); err == nil {
		t.Error("JWT() should fail without a secret")
	}
}
