package transcribe

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// deepgram adapts the Deepgram live-streaming SDK to the Channel interface.
type deepgram struct {
	cfg     *config.Config
	handler Handler

	mu     sync.Mutex
	client *listen.WSCallback
	active bool
}

func newDeepgram(cfg *config.Config, handler Handler) *deepgram {
	return &deepgram{cfg: cfg, handler: handler}
}

func (d *deepgram) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	cOptions := &clientinterfaces.ClientOptions{
		APIKey:          d.cfg.DeepgramAPIKey,
		EnableKeepAlive: true,
	}
	tOptions := &clientinterfaces.LiveTranscriptionOptions{
		Model:          "nova-2",
		Language:       "en",
		SmartFormat:    true,
		Encoding:       "linear16",
		SampleRate:     d.cfg.SampleRate,
		Channels:       d.cfg.Channels,
		InterimResults: true,
	}

	callback := msginterfaces.LiveMessageCallback(&deepgramCallback{handler: d.handler})
	client, err := listen.NewWSUsingCallback(ctx, d.cfg.DeepgramAPIKey, cOptions, tOptions, callback)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "deepgram client create failed")
	}

	if ok := client.Connect(); !ok {
		return apperrors.New(apperrors.CodeUnavailable, "deepgram connect failed")
	}

	d.client = client
	d.active = true
	slog.Info("deepgram transcription started")
	return nil
}

func (d *deepgram) SendAudio(_ context.Context, pcm []byte) error {
	d.mu.Lock()
	client, active := d.client, d.active
	d.mu.Unlock()
	if !active {
		return nil
	}

	if err := client.WriteBinary(pcm); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStream, "deepgram send failed")
	}
	return nil
}

func (d *deepgram) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}
	d.active = false

	d.client.Stop()
	d.client = nil
	slog.Info("deepgram transcription stopped")
	return nil
}

// deepgramCallback maps Deepgram websocket messages to transcript events.
type deepgramCallback struct {
	handler Handler
}

func (c *deepgramCallback) Open(_ *msginterfaces.OpenResponse) error {
	slog.Info("deepgram connection opened")
	return nil
}

func (c *deepgramCallback) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	alt := mr.Channel.Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return nil
	}

	c.handler(Event{Text: text, IsFinal: mr.IsFinal, Confidence: alt.Confidence})
	return nil
}

func (c *deepgramCallback) Metadata(_ *msginterfaces.MetadataResponse) error {
	return nil
}

func (c *deepgramCallback) SpeechStarted(_ *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (c *deepgramCallback) UtteranceEnd(_ *msginterfaces.UtteranceEndResponse) error {
	return nil
}

func (c *deepgramCallback) Close(_ *msginterfaces.CloseResponse) error {
	slog.Info("deepgram connection closed")
	return nil
}

func (c *deepgramCallback) Error(er *msginterfaces.ErrorResponse) error {
	slog.Error("deepgram stream error", "type", er.Type, "description", er.Description)
	return nil
}

func (c *deepgramCallback) UnhandledEvent(raw []byte) error {
	slog.Debug("deepgram unhandled event", "bytes", len(raw))
	return nil
}
