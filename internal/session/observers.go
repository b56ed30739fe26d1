package session

import (
	"sync"

	"github.com/meetscribe/meetscribe/internal/summary"
	"github.com/meetscribe/meetscribe/internal/transcribe"
)

// observers fans events out to registered callbacks. The mutex is held for
// the whole dispatch so each observer sees events in emission order.
type observers struct {
	mu          sync.Mutex
	status      []StatusFunc
	transcripts []TranscriptFunc
	summaries   []SummaryFunc
}

func (o *observers) addStatus(fn StatusFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = append(o.status, fn)
}

func (o *observers) addTranscript(fn TranscriptFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcripts = append(o.transcripts, fn)
}

func (o *observers) addSummary(fn SummaryFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summaries = append(o.summaries, fn)
}

func (o *observers) publishStatus(s Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, fn := range o.status {
		fn(s)
	}
}

func (o *observers) publishTranscript(ev transcribe.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, fn := range o.transcripts {
		fn(ev)
	}
}

func (o *observers) publishSummary(rec summary.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, fn := range o.summaries {
		fn(rec)
	}
}
