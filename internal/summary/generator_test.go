package summary

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

const sampleResponse = `## Key Discussion Points
- Sprint velocity is trending down
- The staging environment keeps flaking

## Decisions Made
- Ship the release on Friday

## Action Items
- Dana to review the proposal by Thursday

## Important Questions/Concerns
- Do we have budget for another SRE?

## Overall Summary
The team reviewed sprint progress and agreed to ship Friday.
Staging reliability remains the main concern.`

// fakeProvider returns canned responses or errors in sequence.
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return sampleResponse, nil
}

func newTestGenerator(p Provider) *Generator {
	g := NewGenerator(p)
	g.retryCfg.MaxRetries = 1
	g.retryCfg.BaseDelay = time.Millisecond
	g.retryCfg.MaxDelay = time.Millisecond
	return g
}

func TestGenerateSuccess(t *testing.T) {
	g := newTestGenerator(&fakeProvider{})

	rec := g.Generate(context.Background(), "transcript window text", "")

	if rec.Failed() {
		t.Fatalf("record flagged failed: %s", rec.Err)
	}
	if rec.SourceWindow != "transcript window text" {
		t.Errorf("SourceWindow = %q", rec.SourceWindow)
	}
	if rec.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should be stamped")
	}
	if len(g.Records()) != 1 {
		t.Errorf("records = %d, want 1", len(g.Records()))
	}
}

func TestGenerateParsesSections(t *testing.T) {
	g := newTestGenerator(&fakeProvider{})
	rec := g.Generate(context.Background(), "window", "")

	s := rec.Structured
	if len(s.KeyPoints) != 2 {
		t.Errorf("KeyPoints = %v, want 2 items", s.KeyPoints)
	}
	if len(s.Decisions) != 1 || s.Decisions[0] != "Ship the release on Friday" {
		t.Errorf("Decisions = %v", s.Decisions)
	}
	if len(s.ActionItems) != 1 || !strings.Contains(s.ActionItems[0], "Dana") {
		t.Errorf("ActionItems = %v", s.ActionItems)
	}
	if len(s.Questions) != 1 {
		t.Errorf("Questions = %v", s.Questions)
	}
	if !strings.Contains(s.Overview, "ship Friday") {
		t.Errorf("Overview = %q", s.Overview)
	}
}

func TestGenerateProviderFailureFlagsRecord(t *testing.T) {
	provider := &fakeProvider{errs: []error{
		apperrors.New(apperrors.CodeSummarize, "model exploded"),
	}}
	g := newTestGenerator(provider)

	rec := g.Generate(context.Background(), "window", "")

	if !rec.Failed() {
		t.Fatal("record should be error-flagged")
	}
	if !strings.Contains(rec.Err, "model exploded") {
		t.Errorf("Err = %q, want failure description", rec.Err)
	}
	// Failed cycles still leave an audit record.
	if len(g.Records()) != 1 {
		t.Errorf("records = %d, want 1", len(g.Records()))
	}
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	provider := &fakeProvider{
		errs:      []error{apperrors.New(apperrors.CodeRateLimited, "429")},
		responses: []string{"", sampleResponse},
	}
	g := newTestGenerator(provider)

	rec := g.Generate(context.Background(), "window", "")

	if rec.Failed() {
		t.Errorf("rate-limited call should succeed on retry, got %s", rec.Err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}

func TestContextForNext(t *testing.T) {
	g := newTestGenerator(&fakeProvider{})
	ctx := context.Background()

	if got := g.ContextForNext(2); got != "" {
		t.Errorf("empty history context = %q, want empty", got)
	}

	g.Generate(ctx, "first window", "")
	g.Generate(ctx, "second window", "")
	g.Generate(ctx, "third window", "")

	got := g.ContextForNext(2)
	if !strings.Contains(got, "The team reviewed sprint progress") {
		t.Errorf("context should carry overviews, got %q", got)
	}
	if strings.Count(got, "Summary ") != 2 {
		t.Errorf("context should include at most 2 summaries, got %q", got)
	}
}

func TestContextForNextFallsBackToRaw(t *testing.T) {
	long := strings.Repeat("x", 300)
	g := newTestGenerator(&fakeProvider{responses: []string{long}})

	g.Generate(context.Background(), "window", "")

	got := g.ContextForNext(2)
	if !strings.Contains(got, strings.Repeat("x", contextRawPrefixLen)+"...") {
		t.Errorf("context should fall back to truncated raw text, got %d chars", len(got))
	}
}

func TestContextForNextSkipsFailures(t *testing.T) {
	provider := &fakeProvider{errs: []error{
		apperrors.New(apperrors.CodeSummarize, "boom"),
	}}
	g := newTestGenerator(provider)

	g.Generate(context.Background(), "window", "")

	if got := g.ContextForNext(2); got != "" {
		t.Errorf("failed records should not feed context, got %q", got)
	}
}

func TestParseStructuredUnstructuredText(t *testing.T) {
	parsed := parseStructured("Just a plain paragraph with no sections at all.")

	if parsed.Overview != "" || len(parsed.KeyPoints) != 0 {
		t.Errorf("unstructured text should parse to empty sections: %+v", parsed)
	}
}

func TestBuildPromptWithContext(t *testing.T) {
	p := buildPrompt("the window", "previous overview")

	if !strings.Contains(p, "CONTEXT FROM PREVIOUS SUMMARIES:") {
		t.Error("prompt should include context header")
	}
	if !strings.Contains(p, "CURRENT TRANSCRIPT SEGMENT:") {
		t.Error("prompt should label the current segment")
	}
	if strings.Index(p, "previous overview") > strings.Index(p, "the window") {
		t.Error("context should precede the transcript window")
	}
}

func TestBuildPromptWithoutContext(t *testing.T) {
	p := buildPrompt("the window", "")

	if strings.Contains(p, "CONTEXT FROM PREVIOUS SUMMARIES") {
		t.Error("prompt should omit context header when no context")
	}
	if !strings.Contains(p, "TRANSCRIPT:\nthe window") {
		t.Error("prompt should end with the bare transcript")
	}
}
