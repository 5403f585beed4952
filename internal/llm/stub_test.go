package llm

import (
	"context"
	"sync/atomic"
)

type stubClient struct {
	calls    atomic.Int32
	closed   bool
	config   *Config
	apiKey   string
	generate func(ctx context.Context, prompt string) (string, error)
}

func (s *stubClient) GenerateContent(ctx context.Context, prompt string, _ ModelTier) (string, error) {
	s.calls.Add(1)
	if s.generate != nil {
		return s.generate(ctx, prompt)
	}
	return "ok", nil
}

func (s *stubClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return s.GenerateContent(ctx, prompt, tier)
}

func (s *stubClient) GetModel(tier ModelTier) string {
	if s.config == nil {
		return ""
	}
	return s.config.GetModel(tier)
}

func (s *stubClient) Close() error {
	s.closed = true
	return nil
}
