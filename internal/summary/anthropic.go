package summary

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

const anthropicMaxTokens = 1500

// anthropicProvider generates summaries with the Anthropic Messages API.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropic(cfg *config.Config) *anthropicProvider {
	return &anthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:  cfg.AnthropicModel,
	}
}

func (p *anthropicProvider) Name() string { return config.ProviderAnthropic }

func (p *anthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(0.3),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyProviderError(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", apperrors.New(apperrors.CodeSummarize, "empty response from anthropic")
	}
	return b.String(), nil
}

// classifyProviderError maps provider failures onto the app taxonomy so the
// retry layer can tell rate limits from hard errors.
func classifyProviderError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return apperrors.Wrap(err, apperrors.CodeRateLimited, "provider rate limited")
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return apperrors.Wrap(err, apperrors.CodeTimeout, "provider call timed out")
	case strings.Contains(msg, "529") || strings.Contains(msg, "503") || strings.Contains(msg, "overloaded"):
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "provider unavailable")
	default:
		return apperrors.Wrap(err, apperrors.CodeSummarize, "provider call failed")
	}
}
