package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meetscribe/meetscribe/internal/resilience"
	"github.com/meetscribe/meetscribe/internal/syncx"
)

// contextRawPrefixLen bounds the raw-text fallback used when a previous
// summary has no parsed overview.
const contextRawPrefixLen = 200

// Generator runs summary cycles against a provider. It owns the sliding
// record history used to build continuity context for the next cycle.
// Provider calls go through a retry layer and a circuit breaker; a failure
// that survives both becomes an error-flagged Record, never a raised error.
type Generator struct {
	provider Provider
	breaker  *resilience.Breaker
	retryCfg resilience.RetryConfig
	records  *syncx.RWGuard[[]Record]
	now      func() time.Time
}

// NewGenerator creates a generator for the given provider.
func NewGenerator(provider Provider) *Generator {
	return &Generator{
		provider: provider,
		breaker:  resilience.NewBreaker(resilience.SummarizerConfig()),
		retryCfg: resilience.LLMRetryConfig(),
		records:  syncx.NewGuard([]Record(nil)),
		now:      time.Now,
	}
}

// Generate runs one summary cycle over the transcript window. The returned
// record is already appended to the generator's history.
func (g *Generator) Generate(ctx context.Context, window, contextText string) Record {
	prompt := buildPrompt(window, contextText)

	raw, err := resilience.ExecuteWithResult(g.breaker, func() (string, error) {
		var out string
		retryErr := resilience.Retry(ctx, g.retryCfg, func() error {
			var callErr error
			out, callErr = g.provider.Complete(ctx, prompt)
			return callErr
		})
		return out, retryErr
	})

	rec := Record{
		GeneratedAt:  g.now(),
		SourceWindow: window,
	}

	if err != nil {
		slog.Error("summary generation failed", "provider", g.provider.Name(), "error", err)
		rec.Err = err.Error()
		rec.Raw = fmt.Sprintf("Error generating summary: %v", err)
	} else {
		rec.Raw = raw
		rec.Structured = parseStructured(raw)
	}

	g.records.Write(func(rs *[]Record) {
		*rs = append(*rs, rec)
	})
	return rec
}

// ContextForNext returns continuity context from at most the last n
// summaries: the parsed overview when available, else a truncated prefix of
// the raw text. Error-flagged records are skipped.
func (g *Generator) ContextForNext(n int) string {
	recs := g.Records()

	var parts []string
	start := len(recs) - n
	if start < 0 {
		start = 0
	}
	for i, rec := range recs[start:] {
		if rec.Failed() {
			continue
		}
		text := rec.Structured.Overview
		if text == "" {
			text = rec.Raw
			if len(text) > contextRawPrefixLen {
				text = text[:contextRawPrefixLen] + "..."
			}
		}
		parts = append(parts, fmt.Sprintf("Summary %d:\n%s", i+1, text))
	}

	if len(parts) == 0 {
		return ""
	}
	joined := parts[0]
	for _, p := range parts[1:] {
		joined += "\n\n" + p
	}
	return joined
}

// Records returns a copy of all records in generation order.
func (g *Generator) Records() []Record {
	return g.records.Read(func(rs []Record) any {
		out := make([]Record, len(rs))
		copy(out, rs)
		return out
	}).([]Record)
}
