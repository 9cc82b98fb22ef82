package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
)

// Provider names accepted by llm.provider.
const (
	ProviderAuto   = "auto"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// retryBaseDelay is the first backoff step between model call attempts.
const retryBaseDelay = time.Second

// New builds the configured client wrapped with rate limiting and retries.
// It returns a nil Client when no provider is available, in which case
// analyzers fall back to their offline implementations.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderAuto, "":
		if cfg.APIKey == "" {
			return nil, nil
		}
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm provider gemini requires an API key")
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	g, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	return Wrap(g, RateLimit(cfg.RequestsPerSecond, 1), Retry(cfg.MaxAttempts, retryBaseDelay)), nil
}
