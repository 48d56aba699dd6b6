package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Config selects and configures a provider.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	// Retry overrides DefaultRetryPolicy when MaxAttempts is set.
	Retry RetryPolicy
}

// New builds the configured provider wrapped in the retry decorator.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Generator, error) {
	var (
		base Generator
		err  error
	)

	switch cfg.Provider {
	case ProviderGemini, "":
		base, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderAnthropic:
		base = NewAnthropic(cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		base = NewOpenAI(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}

	return NewRetrying(base, policy, logger), nil
}
