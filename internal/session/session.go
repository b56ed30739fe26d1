// Package session orchestrates the lifecycle of a single meeting session:
// joining the meeting, pumping captured audio into the transcription channel,
// scheduling periodic summaries, and exporting the accumulated record.
package session

import (
	"context"
	"time"

	"github.com/meetscribe/meetscribe/internal/audio"
	"github.com/meetscribe/meetscribe/internal/summary"
	"github.com/meetscribe/meetscribe/internal/transcribe"
)

// State is the lifecycle phase of a session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateJoining       State = "joining"
	StateInMeeting     State = "in_meeting"
	StateRecording     State = "recording"
	StateStopping      State = "stopping"
	StateStopped       State = "stopped"
	StateError         State = "error"
	StateClosed        State = "closed"
)

// Status is a broadcast lifecycle update delivered to status observers.
type Status struct {
	State     State     `json:"state"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is a point-in-time snapshot of session counters.
type Stats struct {
	TranscriptsReceived int64 `json:"transcripts_received"`
	SummariesGenerated  int64 `json:"summaries_generated"`
	Errors              int64 `json:"errors"`
}

// Joiner drives browser automation for meeting attendance.
type Joiner interface {
	Initialize(ctx context.Context) error
	Join(ctx context.Context, url, password string) (bool, error)
	Leave(ctx context.Context) error
	Close(ctx context.Context) error
	InMeeting() bool
}

// AudioSource produces PCM frames from a capture device.
type AudioSource interface {
	StartCapture(deviceID int) error
	NextFrame(timeout time.Duration) (audio.Frame, bool)
	StopCapture() error
}

// Transcriber streams audio to a speech-to-text provider.
type Transcriber interface {
	Start(ctx context.Context) error
	SendAudio(ctx context.Context, pcm []byte) error
	Stop(ctx context.Context) error
}

// Summarizer produces structured summaries over transcript windows.
type Summarizer interface {
	Generate(ctx context.Context, window, contextText string) summary.Record
	ContextForNext(n int) string
	Records() []summary.Record
}

// Observer callback types. Callbacks run synchronously on the emitting
// goroutine; slow observers should hand off to their own worker.
type (
	StatusFunc     func(Status)
	TranscriptFunc func(transcribe.Event)
	SummaryFunc    func(summary.Record)
)
