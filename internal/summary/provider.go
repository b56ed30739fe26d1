package summary

import (
	"context"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// Provider is a stateless text-completion backend for summary generation.
type Provider interface {
	// Complete sends the prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider in logs and exports.
	Name() string
}

// NewProvider selects a summarization backend from configuration.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.SummaryProvider {
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, apperrors.New(apperrors.CodeConfig, "ANTHROPIC_API_KEY not set")
		}
		return newAnthropic(cfg), nil
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, apperrors.New(apperrors.CodeConfig, "GEMINI_API_KEY not set")
		}
		return newGemini(cfg), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeConfig, "unknown summary provider: %s", cfg.SummaryProvider)
	}
}
