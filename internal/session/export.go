package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/meetscribe/meetscribe/internal/errors"
	"github.com/meetscribe/meetscribe/internal/summary"
)

// Export formats.
const (
	FormatStructured = "json"
	FormatLongform   = "markdown"
	FormatPlain      = "text"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportDocument is the machine-readable export shape. Field order matches
// the rendered output: session header, transcript, summaries, stats. Every
// timestamp comes from stored session state, so identical state renders to
// identical bytes.
type ExportDocument struct {
	SessionID  string            `json:"session_id"`
	State      State             `json:"state"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	Transcript string            `json:"transcript"`
	Entries    []TranscriptEntry `json:"entries"`
	Summaries  []summary.Record  `json:"summaries"`
	Stats      Stats             `json:"stats"`
}

// Export renders the full session record in the given format. Valid at any
// point in the lifecycle; the output reflects everything accumulated so far.
func (o *Orchestrator) Export(format string) (string, error) {
	doc := o.document()
	switch format {
	case FormatStructured:
		return renderStructured(doc)
	case FormatLongform:
		return renderLongform(doc), nil
	case FormatPlain:
		return renderPlain(doc), nil
	default:
		return "", apperrors.Newf(apperrors.CodeConfig,
			"unknown export format %q (want %s, %s, or %s)",
			format, FormatStructured, FormatLongform, FormatPlain)
	}
}

func (o *Orchestrator) document() ExportDocument {
	doc := ExportDocument{
		SessionID:  o.ID(),
		State:      o.State(),
		Transcript: o.ledger.FullText(),
		Entries:    o.ledger.Entries(),
		Summaries:  o.summarizer.Records(),
		Stats:      o.Stats(),
	}
	if started := o.startedAt.Get(); !started.IsZero() {
		doc.StartedAt = &started
	}
	return doc
}

func renderStructured(doc ExportDocument) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "marshal export")
	}
	return string(data), nil
}

func renderLongform(doc ExportDocument) string {
	var b strings.Builder

	b.WriteString("# Meeting Recording\n\n")
	fmt.Fprintf(&b, "**Session:** %s\n", doc.SessionID)
	if doc.StartedAt != nil {
		fmt.Fprintf(&b, "**Started:** %s\n", doc.StartedAt.Format(exportTimeLayout))
	}
	b.WriteString("\n## Full Transcript\n\n")
	if doc.Transcript != "" {
		b.WriteString(doc.Transcript)
		b.WriteString("\n")
	} else {
		b.WriteString("_No transcript recorded._\n")
	}

	b.WriteString("\n---\n\n# Meeting Summaries\n")
	for i, rec := range doc.Summaries {
		fmt.Fprintf(&b, "\n## Summary %d - %s\n\n", i+1, rec.GeneratedAt.Format(exportTimeLayout))
		if rec.Failed() {
			fmt.Fprintf(&b, "_Generation failed: %s_\n", rec.Err)
			continue
		}
		writeMarkdownSection(&b, "Overview", rec.Structured.Overview)
		writeMarkdownList(&b, "Key Points", rec.Structured.KeyPoints)
		writeMarkdownList(&b, "Decisions", rec.Structured.Decisions)
		writeMarkdownList(&b, "Action Items", rec.Structured.ActionItems)
		writeMarkdownList(&b, "Questions", rec.Structured.Questions)
	}
	if len(doc.Summaries) == 0 {
		b.WriteString("\n_No summaries generated._\n")
	}

	b.WriteString("\n---\n\n## Stats\n\n")
	fmt.Fprintf(&b, "- Transcripts received: %d\n", doc.Stats.TranscriptsReceived)
	fmt.Fprintf(&b, "- Summaries generated: %d\n", doc.Stats.SummariesGenerated)
	fmt.Fprintf(&b, "- Errors: %d\n", doc.Stats.Errors)
	return b.String()
}

func writeMarkdownSection(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n\n", title, body)
}

func writeMarkdownList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func renderPlain(doc ExportDocument) string {
	var b strings.Builder

	b.WriteString("MEETING RECORDING\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Session: %s\n", doc.SessionID)
	if doc.StartedAt != nil {
		fmt.Fprintf(&b, "Started: %s\n", doc.StartedAt.Format(exportTimeLayout))
	}

	b.WriteString("\nFULL TRANSCRIPT\n")
	b.WriteString("---------------\n\n")
	if doc.Transcript != "" {
		b.WriteString(doc.Transcript)
		b.WriteString("\n")
	} else {
		b.WriteString("No transcript recorded.\n")
	}

	b.WriteString("\nSUMMARIES\n")
	b.WriteString("---------\n")
	for i, rec := range doc.Summaries {
		fmt.Fprintf(&b, "\nSummary %d (%s)\n", i+1, rec.GeneratedAt.Format(exportTimeLayout))
		if rec.Failed() {
			fmt.Fprintf(&b, "Generation failed: %s\n", rec.Err)
			continue
		}
		if rec.Structured.Overview != "" {
			fmt.Fprintf(&b, "Overview: %s\n", rec.Structured.Overview)
		}
		writePlainList(&b, "Key points", rec.Structured.KeyPoints)
		writePlainList(&b, "Decisions", rec.Structured.Decisions)
		writePlainList(&b, "Action items", rec.Structured.ActionItems)
		writePlainList(&b, "Questions", rec.Structured.Questions)
	}
	if len(doc.Summaries) == 0 {
		b.WriteString("\nNo summaries generated.\n")
	}

	b.WriteString("\nSTATS\n")
	b.WriteString("-----\n")
	fmt.Fprintf(&b, "Transcripts received: %d\n", doc.Stats.TranscriptsReceived)
	fmt.Fprintf(&b, "Summaries generated: %d\n", doc.Stats.SummariesGenerated)
	fmt.Fprintf(&b, "Errors: %d\n", doc.Stats.Errors)
	return b.String()
}

func writePlainList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}
