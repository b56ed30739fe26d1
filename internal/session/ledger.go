package session

import (
	"strings"
	"sync"
	"time"

	"github.com/meetscribe/meetscribe/internal/transcribe"
)

// TranscriptEntry is one durably retained utterance segment.
type TranscriptEntry struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Ledger is the append-only store of final transcript events. Entries keep
// arrival order and are never removed or reordered; partial events are
// relayed to observers by the orchestrator but never stored here. The mutex
// serializes appends because transcription providers emit from their own
// socket goroutine.
type Ledger struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
	now     func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Append stamps the event's arrival time and retains it when final.
// Returns whether the event was retained.
func (l *Ledger) Append(ev transcribe.Event) bool {
	if !ev.IsFinal {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, TranscriptEntry{
		Text:       ev.Text,
		Confidence: ev.Confidence,
		ReceivedAt: l.now(),
	})
	return true
}

// FullText joins all retained texts with a single space, in arrival order.
func (l *Ledger) FullText() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	texts := make([]string, len(l.entries))
	for i, e := range l.entries {
		texts[i] = e.Text
	}
	return strings.Join(texts, " ")
}

// RecentText joins texts of entries received within the trailing window.
func (l *Ledger) RecentText(window time.Duration) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := l.now().Add(-window)
	var texts []string
	for _, e := range l.entries {
		if !e.ReceivedAt.Before(cutoff) {
			texts = append(texts, e.Text)
		}
	}
	return strings.Join(texts, " ")
}

// Entries returns a copy of all retained entries.
func (l *Ledger) Entries() []TranscriptEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the ledger. Used only for explicit resets, not part of the
// normal session lifecycle.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
