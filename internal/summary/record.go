// Package summary generates structured AI summaries of meeting transcript
// windows, with sliding context across generation cycles.
package summary

import "time"

// Structured is the parsed form of a model response.
type Structured struct {
	Overview    string   `json:"overview"`
	KeyPoints   []string `json:"key_points"`
	Decisions   []string `json:"decisions"`
	ActionItems []string `json:"action_items"`
	Questions   []string `json:"questions"`
}

// Record is one summary cycle's output. Immutable once created. A failed
// provider call yields a record with Err set instead of an error return;
// summarization failures are non-fatal to the session.
type Record struct {
	GeneratedAt  time.Time  `json:"generated_at"`
	SourceWindow string     `json:"source_window"`
	Raw          string     `json:"raw"`
	Structured   Structured `json:"structured"`
	Err          string     `json:"error,omitempty"`
}

// Failed reports whether this record captures a provider failure.
func (r Record) Failed() bool { return r.Err != "" }
