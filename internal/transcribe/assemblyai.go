package transcribe

import (
	"context"
	"log/slog"
	"sync"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// assemblyAI adapts the AssemblyAI real-time SDK to the Channel interface.
type assemblyAI struct {
	client *aai.RealTimeClient

	mu     sync.Mutex
	active bool
}

func newAssemblyAI(cfg *config.Config, handler Handler) *assemblyAI {
	transcriber := &aai.RealTimeTranscriber{
		OnSessionBegins: func(ev aai.SessionBegins) {
			slog.Info("assemblyai session opened", "session_id", ev.SessionID)
		},
		OnPartialTranscript: func(t aai.PartialTranscript) {
			if t.Text == "" {
				return
			}
			handler(Event{Text: t.Text, IsFinal: false, Confidence: t.Confidence})
		},
		OnFinalTranscript: func(t aai.FinalTranscript) {
			if t.Text == "" {
				return
			}
			handler(Event{Text: t.Text, IsFinal: true, Confidence: t.Confidence})
		},
		OnError: func(err error) {
			slog.Error("assemblyai stream error", "error", err)
		},
		OnSessionTerminated: func(ev aai.SessionTerminated) {
			slog.Info("assemblyai session closed")
		},
	}

	client := aai.NewRealTimeClientWithOptions(
		aai.WithRealTimeAPIKey(cfg.AssemblyAIAPIKey),
		aai.WithRealTimeSampleRate(cfg.SampleRate),
		aai.WithRealTimeTranscriber(transcriber),
	)

	return &assemblyAI{client: client}
}

func (a *assemblyAI) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return nil
	}
	if err := a.client.Connect(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "assemblyai connect failed")
	}
	a.active = true
	slog.Info("assemblyai transcription started")
	return nil
}

func (a *assemblyAI) SendAudio(ctx context.Context, pcm []byte) error {
	a.mu.Lock()
	active := a.active
	a.mu.Unlock()
	if !active {
		return nil
	}

	if err := a.client.Send(ctx, pcm); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStream, "assemblyai send failed")
	}
	return nil
}

func (a *assemblyAI) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return nil
	}
	a.active = false

	if err := a.client.Disconnect(ctx, true); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStream, "assemblyai disconnect failed")
	}
	slog.Info("assemblyai transcription stopped")
	return nil
}
