package summary

import "strings"

const basePrompt = `Analyze the following meeting transcript segment and provide a structured summary.

Format your response as follows:

## Key Discussion Points
- [List main topics discussed with brief descriptions]

## Decisions Made
- [List any decisions or conclusions reached]

## Action Items
- [List action items with owners if mentioned, e.g., "John to review the proposal by Friday"]

## Important Questions/Concerns
- [List significant questions raised or concerns expressed]

## Overall Summary
[Provide a brief 2-3 sentence overview of this segment]

Keep the summary concise, factual, and well-organized. Focus on actionable information and key takeaways.`

// buildPrompt assembles the model prompt from the transcript window and
// optional context carried over from previous summaries.
func buildPrompt(window, context string) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if context != "" {
		b.WriteString("\n\nCONTEXT FROM PREVIOUS SUMMARIES:\n")
		b.WriteString(context)
		b.WriteString("\n\nCURRENT TRANSCRIPT SEGMENT:\n")
	} else {
		b.WriteString("\n\nTRANSCRIPT:\n")
	}
	b.WriteString(window)

	return b.String()
}
