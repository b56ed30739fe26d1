package summary

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// geminiProvider generates summaries with the Gemini API.
type geminiProvider struct {
	apiKey string
	model  string
}

func newGemini(cfg *config.Config) *geminiProvider {
	return &geminiProvider{apiKey: cfg.GeminiAPIKey, model: cfg.GeminiModel}
}

func (p *geminiProvider) Name() string { return config.ProviderGemini }

func (p *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeSummarize, "gemini client create failed")
	}

	result, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyProviderError(err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", apperrors.New(apperrors.CodeSummarize, "empty response from gemini")
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", apperrors.New(apperrors.CodeSummarize, "empty response from gemini")
	}
	return b.String(), nil
}
