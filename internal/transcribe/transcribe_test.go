package transcribe

import (
	"testing"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

func baseConfig() *config.Config {
	return &config.Config{
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestNewSelectsAssemblyAI(t *testing.T) {
	cfg := baseConfig()
	cfg.TranscriptionService = config.ProviderAssemblyAI
	cfg.AssemblyAIAPIKey = "key"

	ch, err := New(cfg, func(Event) {})
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	if _, ok := ch.(*assemblyAI); !ok {
		t.Errorf("New() returned %T, want *assemblyAI", ch)
	}
}

func TestNewSelectsDeepgram(t *testing.T) {
	cfg := baseConfig()
	cfg.TranscriptionService = config.ProviderDeepgram
	cfg.DeepgramAPIKey = "key"

	ch, err := New(cfg, func(Event) {})
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	if _, ok := ch.(*deepgram); !ok {
		t.Errorf("New() returned %T, want *deepgram", ch)
	}
}

func TestNewMissingKeyIsConfigError(t *testing.T) {
	tests := []struct {
		name    string
		service string
	}{
		{"assemblyai", config.ProviderAssemblyAI},
		{"deepgram", config.ProviderDeepgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.TranscriptionService = tt.service

			_, err := New(cfg, func(Event) {})
			if err == nil {
				t.Fatal("New() = nil error, want config error")
			}
			if !apperrors.IsCode(err, apperrors.CodeConfig) {
				t.Errorf("error code = %s, want CONFIG", apperrors.CodeOf(err))
			}
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := baseConfig()
	cfg.TranscriptionService = "whisper"

	_, err := New(cfg, func(Event) {})
	if !apperrors.IsCode(err, apperrors.CodeConfig) {
		t.Errorf("unknown provider error = %v, want CONFIG code", err)
	}
}

func msgResponse(text string, final bool) *msginterfaces.MessageResponse {
	mr := &msginterfaces.MessageResponse{IsFinal: final}
	if text != "" {
		mr.Channel.Alternatives = []msginterfaces.Alternative{{Transcript: text, Confidence: 0.9}}
	}
	return mr
}

func TestDeepgramCallbackFiltersEmpty(t *testing.T) {
	var events []Event
	cb := &deepgramCallback{handler: func(e Event) { events = append(events, e) }}

	// No alternatives at all.
	if err := cb.Message(msgResponse("", false)); err != nil {
		t.Fatalf("Message() = %v", err)
	}
	// Whitespace-only transcript.
	if err := cb.Message(msgResponse("   ", true)); err != nil {
		t.Fatalf("Message() = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("empty transcripts should not reach the handler, got %d events", len(events))
	}

	if err := cb.Message(msgResponse("Hello team", true)); err != nil {
		t.Fatalf("Message() = %v", err)
	}
	if len(events) != 1 || events[0].Text != "Hello team" || !events[0].IsFinal {
		t.Errorf("events = %+v, want one final 'Hello team'", events)
	}
}
