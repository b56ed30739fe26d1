package session

import (
	"testing"
	"time"

	"github.com/meetscribe/meetscribe/internal/transcribe"
)

func TestLedgerRetainsOnlyFinals(t *testing.T) {
	l := NewLedger()

	if retained := l.Append(transcribe.Event{Text: "hel", IsFinal: false}); retained {
		t.Error("partial event should not be retained")
	}
	if retained := l.Append(transcribe.Event{Text: "hello there", IsFinal: true}); !retained {
		t.Error("final event should be retained")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestLedgerFullTextOrder(t *testing.T) {
	l := NewLedger()
	l.Append(transcribe.Event{Text: "first segment", IsFinal: true})
	l.Append(transcribe.Event{Text: "second segment", IsFinal: true})
	l.Append(transcribe.Event{Text: "third segment", IsFinal: true})

	want := "first segment second segment third segment"
	if got := l.FullText(); got != want {
		t.Errorf("FullText() = %q, want %q", got, want)
	}
}

func TestLedgerRecentTextWindow(t *testing.T) {
	l := NewLedger()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := base
	l.now = func() time.Time { return clock }

	l.Append(transcribe.Event{Text: "old remark", IsFinal: true})
	clock = base.Add(4 * time.Minute)
	l.Append(transcribe.Event{Text: "recent remark", IsFinal: true})
	clock = base.Add(5 * time.Minute)
	l.Append(transcribe.Event{Text: "latest remark", IsFinal: true})

	// Window reaches back to base, so the entry stamped exactly at the
	// cutoff is still included.
	if got := l.RecentText(5 * time.Minute); got != "old remark recent remark latest remark" {
		t.Errorf("RecentText(5m) = %q", got)
	}

	clock = base.Add(6 * time.Minute)
	want := "recent remark latest remark"
	if got := l.RecentText(5 * time.Minute); got != want {
		t.Errorf("RecentText(5m) = %q, want %q", got, want)
	}

	if got := l.FullText(); got != "old remark recent remark latest remark" {
		t.Errorf("FullText() = %q, window must not affect full transcript", got)
	}
}

func TestLedgerEntriesCopy(t *testing.T) {
	l := NewLedger()
	l.Append(transcribe.Event{Text: "original", IsFinal: true, Confidence: 0.9})

	entries := l.Entries()
	entries[0].Text = "mutated"
	if l.Entries()[0].Text != "original" {
		t.Error("Entries() must return a copy")
	}
	if l.Entries()[0].Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", l.Entries()[0].Confidence)
	}
}

func TestLedgerClear(t *testing.T) {
	l := NewLedger()
	l.Append(transcribe.Event{Text: "something", IsFinal: true})
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", l.Len())
	}
	if l.FullText() != "" {
		t.Errorf("FullText() after Clear = %q, want empty", l.FullText())
	}
}
