// Package transcribe streams audio to a real-time transcription provider
// and relays transcript events to a registered handler.
package transcribe

import (
	"context"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// Event is one utterance segment from the provider. Only final events carry
// confirmed, punctuated text; partials are provisional hypotheses.
type Event struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

// Handler receives transcript events. Providers invoke it from their own
// socket goroutine, zero or more times per frame sent.
type Handler func(Event)

// Channel is a duplex streaming transcription connection.
type Channel interface {
	// Start connects to the provider. Fails on invalid credentials or
	// connection errors.
	Start(ctx context.Context) error
	// SendAudio forwards one frame of little-endian PCM16 audio.
	SendAudio(ctx context.Context, pcm []byte) error
	// Stop closes the connection, flushing any in-flight results.
	Stop(ctx context.Context) error
}

// New selects a provider from configuration. A missing key or unknown
// provider name is a configuration error at selection time, not a deferred
// runtime surprise.
func New(cfg *config.Config, handler Handler) (Channel, error) {
	switch cfg.TranscriptionService {
	case config.ProviderAssemblyAI:
		if cfg.AssemblyAIAPIKey == "" {
			return nil, apperrors.New(apperrors.CodeConfig, "ASSEMBLYAI_API_KEY not set")
		}
		return newAssemblyAI(cfg, handler), nil
	case config.ProviderDeepgram:
		if cfg.DeepgramAPIKey == "" {
			return nil, apperrors.New(apperrors.CodeConfig, "DEEPGRAM_API_KEY not set")
		}
		return newDeepgram(cfg, handler), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeConfig, "unknown transcription service: %s", cfg.TranscriptionService)
	}
}
