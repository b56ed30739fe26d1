package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
	"github.com/meetscribe/meetscribe/internal/resilience"
	"github.com/meetscribe/meetscribe/internal/syncx"
	"github.com/meetscribe/meetscribe/internal/trace"
	"github.com/meetscribe/meetscribe/internal/transcribe"
)

const (
	// frameWait bounds each audio read so the pump loop re-checks
	// cancellation at least twice per second.
	frameWait = 500 * time.Millisecond

	// summaryPoll is how often the summary loop re-evaluates whether the
	// configured interval has elapsed.
	summaryPoll = 10 * time.Second

	// minSummaryChars skips generation on windows too thin to summarize.
	minSummaryChars = 50

	// contextSummaries is how many prior summaries seed the next prompt.
	contextSummaries = 2
)

// Options collects the collaborators an Orchestrator drives. NewTranscriber
// is a factory because the transcription channel needs the orchestrator's
// event handler before it can be built.
type Options struct {
	Config         *config.Config
	Joiner         Joiner
	Source         AudioSource
	NewTranscriber func(h transcribe.Handler) (Transcriber, error)
	Summarizer     Summarizer
}

// Orchestrator owns one meeting session end to end. Lifecycle operations
// (Initialize, Start, Stop, Cleanup) are serialized by an internal mutex;
// state reads, stats, observers, and export are safe from any goroutine.
type Orchestrator struct {
	cfg        *config.Config
	joiner     Joiner
	source     AudioSource
	newChannel func(h transcribe.Handler) (Transcriber, error)
	channel    Transcriber
	summarizer Summarizer
	ledger     *Ledger

	id    uuid.UUID
	state *syncx.RWGuard[State]

	startedAt     *syncx.RWGuard[time.Time]
	lastSummaryAt *syncx.RWGuard[time.Time]

	transcriptsReceived atomic.Int64
	summariesGenerated  atomic.Int64
	errorCount          atomic.Int64

	observers observers

	lifecycle  sync.Mutex
	loopCancel context.CancelFunc
	loops      sync.WaitGroup

	// Overridable in tests.
	frameWait time.Duration
	poll      time.Duration
	now       func() time.Time
}

// New creates an orchestrator in the uninitialized state.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		cfg:           opts.Config,
		joiner:        opts.Joiner,
		source:        opts.Source,
		newChannel:    opts.NewTranscriber,
		summarizer:    opts.Summarizer,
		ledger:        NewLedger(),
		id:            uuid.New(),
		state:         syncx.NewGuard(StateUninitialized),
		startedAt:     syncx.NewGuard(time.Time{}),
		lastSummaryAt: syncx.NewGuard(time.Time{}),
		frameWait:     frameWait,
		poll:          summaryPoll,
		now:           time.Now,
	}
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string { return o.id.String() }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state.Get() }

// Stats returns a snapshot of the session counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		TranscriptsReceived: o.transcriptsReceived.Load(),
		SummariesGenerated:  o.summariesGenerated.Load(),
		Errors:              o.errorCount.Load(),
	}
}

// StartedAt returns when recording began, zero before Start succeeds.
func (o *Orchestrator) StartedAt() time.Time { return o.startedAt.Get() }

// Ledger exposes the transcript store for read access.
func (o *Orchestrator) Ledger() *Ledger { return o.ledger }

// OnStatus registers a lifecycle observer.
func (o *Orchestrator) OnStatus(fn StatusFunc) { o.observers.addStatus(fn) }

// OnTranscript registers a transcript observer. It receives every event,
// partial and final alike.
func (o *Orchestrator) OnTranscript(fn TranscriptFunc) { o.observers.addTranscript(fn) }

// OnSummary registers an observer for successfully generated summaries.
func (o *Orchestrator) OnSummary(fn SummaryFunc) { o.observers.addSummary(fn) }

// Initialize validates configuration and prepares collaborators. Moves the
// session from uninitialized to ready, or to error on any failure.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	log := trace.Logger(ctx)

	switch o.state.Get() {
	case StateUninitialized, StateError:
	case StateReady:
		return nil
	default:
		return apperrors.Newf(apperrors.CodeInternal,
			"cannot initialize session in state %q", o.state.Get())
	}

	o.setState(StateInitializing, "Setting up components...")

	if err := o.cfg.Validate(); err != nil {
		o.setState(StateError, err.Error())
		return err
	}

	channel, err := o.newChannel(o.handleTranscript)
	if err != nil {
		o.setState(StateError, err.Error())
		return apperrors.Wrap(err, apperrors.CodeConfig, "create transcription channel")
	}
	o.channel = channel

	// Provider connects fail transiently; retry before giving up on the
	// whole initialization.
	err = resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		return o.channel.Start(ctx)
	})
	if err != nil {
		o.setState(StateError, err.Error())
		return apperrors.Wrap(err, apperrors.CodeStream, "start transcription channel")
	}

	if err := o.joiner.Initialize(ctx); err != nil {
		o.setState(StateError, err.Error())
		return apperrors.Wrap(err, apperrors.CodeJoin, "initialize meeting joiner")
	}

	o.setState(StateReady, "Initialization complete")
	log.Info("session initialized", "session_id", o.ID())
	return nil
}

// Start joins the meeting, begins audio capture, and launches the audio and
// summary loops. Requires the ready state; calling on a recording session is
// a no-op.
func (o *Orchestrator) Start(ctx context.Context, meetingURL, password string, deviceID int) error {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	log := trace.Logger(ctx)

	switch o.state.Get() {
	case StateRecording:
		log.Warn("start ignored, session already recording", "session_id", o.ID())
		return nil
	case StateReady:
	default:
		return apperrors.Newf(apperrors.CodeInternal,
			"cannot start session in state %q", o.state.Get())
	}

	o.setState(StateJoining, "Joining meeting: "+meetingURL)
	joined, err := o.joiner.Join(ctx, meetingURL, password)
	if err != nil {
		o.setState(StateError, "Failed to join meeting: "+err.Error())
		return apperrors.Wrap(err, apperrors.CodeJoin, "join meeting")
	}
	if !joined {
		o.setState(StateError, "Failed to join meeting")
		return apperrors.New(apperrors.CodeJoin, "meeting join was not confirmed")
	}
	o.setState(StateInMeeting, "Successfully joined meeting")

	if err := o.source.StartCapture(deviceID); err != nil {
		o.setState(StateError, "Failed to start audio capture: "+err.Error())
		return apperrors.Wrap(err, apperrors.CodeStream, "start audio capture")
	}

	now := o.now()
	o.startedAt.Set(now)
	o.lastSummaryAt.Set(now)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.loopCancel = cancel
	o.loops.Add(2)
	go o.audioLoop(loopCtx)
	go o.summaryLoop(loopCtx)

	o.setState(StateRecording, "Recording and transcribing")
	log.Info("session recording",
		"session_id", o.ID(),
		"meeting_url", meetingURL,
	)
	return nil
}

// Stop halts the loops, generates a final summary over whatever transcript
// remains, and releases capture and meeting resources. Each release step is
// attempted regardless of earlier failures; errors are aggregated. No-op
// when the session is not running.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	log := trace.Logger(ctx)

	switch o.state.Get() {
	case StateRecording, StateInMeeting:
	default:
		log.Warn("stop ignored, session not running",
			"session_id", o.ID(),
			"state", string(o.state.Get()),
		)
		return nil
	}

	o.setState(StateStopping, "Stopping meeting...")

	if o.loopCancel != nil {
		o.loopCancel()
		o.loopCancel = nil
	}
	o.loops.Wait()

	o.setState(StateStopping, "Generating final summary...")
	o.generateSummary(ctx)

	var errs []error
	if err := o.source.StopCapture(); err != nil {
		log.Error("stop audio capture failed", "error", err)
		errs = append(errs, err)
	}
	if o.channel != nil {
		if err := o.channel.Stop(ctx); err != nil {
			log.Error("stop transcription channel failed", "error", err)
			errs = append(errs, err)
		}
	}
	if err := o.joiner.Leave(ctx); err != nil {
		log.Error("leave meeting failed", "error", err)
		errs = append(errs, err)
	}

	o.setState(StateStopped, "Meeting ended")
	stats := o.Stats()
	log.Info("session stopped",
		"session_id", o.ID(),
		"transcripts_received", stats.TranscriptsReceived,
		"summaries_generated", stats.SummariesGenerated,
		"errors", stats.Errors,
	)
	return errors.Join(errs...)
}

// Cleanup stops the session if still running and releases the browser. Safe
// to call multiple times and from any state.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	switch o.state.Get() {
	case StateClosed:
		return nil
	case StateRecording, StateInMeeting:
		if err := o.Stop(ctx); err != nil {
			trace.Logger(ctx).Error("stop during cleanup failed", "error", err)
		}
	}

	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	var errs []error
	if err := o.joiner.Close(ctx); err != nil {
		trace.Logger(ctx).Error("close meeting joiner failed", "error", err)
		errs = append(errs, err)
	}
	o.setState(StateClosed, "Session closed")
	return errors.Join(errs...)
}

// handleTranscript receives every provider event. All events count toward
// stats and reach observers; only finals are retained in the ledger.
func (o *Orchestrator) handleTranscript(ev transcribe.Event) {
	o.transcriptsReceived.Add(1)
	o.ledger.Append(ev)
	o.observers.publishTranscript(ev)
}

// audioLoop pumps captured frames into the transcription channel until
// cancelled. A send failure counts one error, broadcasts an error status,
// and ends this loop only; the summary loop keeps running over whatever
// transcript already accumulated.
func (o *Orchestrator) audioLoop(ctx context.Context) {
	defer o.loops.Done()
	log := trace.Logger(ctx)
	log.Debug("audio loop started", "session_id", o.ID())

	for {
		select {
		case <-ctx.Done():
			log.Debug("audio loop stopped", "session_id", o.ID())
			return
		default:
		}

		frame, ok := o.source.NextFrame(o.frameWait)
		if !ok {
			continue
		}
		if err := o.channel.SendAudio(ctx, frame.Bytes()); err != nil {
			if ctx.Err() != nil {
				return
			}
			o.errorCount.Add(1)
			log.Error("audio processing error", "error", err, "session_id", o.ID())
			o.broadcast(StateError, "Audio processing error: "+err.Error())
			return
		}
	}
}

// summaryLoop periodically checks whether the configured summary interval
// has elapsed and generates a summary when it has.
func (o *Orchestrator) summaryLoop(ctx context.Context) {
	defer o.loops.Done()
	log := trace.Logger(ctx)
	log.Debug("summary loop started", "session_id", o.ID())

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	interval := o.summaryInterval()
	for {
		select {
		case <-ctx.Done():
			log.Debug("summary loop stopped", "session_id", o.ID())
			return
		case <-ticker.C:
			last := o.lastSummaryAt.Get()
			if last.IsZero() || o.now().Sub(last) < interval {
				continue
			}
			o.generateSummary(ctx)
		}
	}
}

// generateSummary runs one summarization attempt over the recent transcript
// window. Thin windows are skipped without advancing the interval clock; any
// real attempt advances it, so a failing provider is retried no sooner than
// the next interval.
func (o *Orchestrator) generateSummary(ctx context.Context) {
	log := trace.Logger(ctx)

	window := o.ledger.RecentText(o.summaryInterval())
	if len(strings.TrimSpace(window)) < minSummaryChars {
		log.Debug("skipping summary, not enough transcript",
			"session_id", o.ID(),
			"window_chars", len(window),
		)
		return
	}

	o.lastSummaryAt.Set(o.now())

	rec := o.summarizer.Generate(ctx, window, o.summarizer.ContextForNext(contextSummaries))
	if rec.Failed() {
		o.errorCount.Add(1)
		log.Error("summary generation failed", "error", rec.Err, "session_id", o.ID())
		return
	}

	o.summariesGenerated.Add(1)
	o.observers.publishSummary(rec)
	log.Info("summary generated",
		"session_id", o.ID(),
		"total", o.summariesGenerated.Load(),
	)
}

func (o *Orchestrator) summaryInterval() time.Duration {
	return time.Duration(o.cfg.SummaryIntervalMinutes) * time.Minute
}

// setState stores the new state and broadcasts it.
func (o *Orchestrator) setState(s State, details string) {
	o.state.Set(s)
	o.broadcast(s, details)
}

// broadcast notifies status observers without touching the stored state.
// Loop failures use this to surface errors while the session keeps running.
func (o *Orchestrator) broadcast(s State, details string) {
	o.observers.publishStatus(Status{State: s, Details: details, Timestamp: o.now()})
}
