// Package audio handles audio device capture with backpressure
package audio

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// DefaultDevice selects the system default input device.
const DefaultDevice = -1

// frameDuration is the length of one captured frame. 100ms keeps provider
// round-trips small without busy-spinning the audio loop.
const frameDuration = 100 * time.Millisecond

// Frame is one fixed-duration chunk of 16-bit PCM samples.
type Frame struct {
	Data     []int16
	Captured time.Time
}

// Bytes returns the frame as little-endian PCM16, the wire format both
// transcription providers expect (linear16).
func (f Frame) Bytes() []byte {
	buf := make([]byte, len(f.Data)*2)
	for i, s := range f.Data {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// Device describes an input device for enumeration.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// Capture records from one input device into a bounded frame channel.
// The portaudio callback runs on its own thread; a full channel drops the
// frame rather than blocking capture.
type Capture struct {
	sampleRate int
	channels   int
	frameCh    chan Frame

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
}

// NewCapture creates a capture for the given format. bufferFrames bounds how
// many unconsumed frames are held before drops begin.
func NewCapture(sampleRate, channels, bufferFrames int) *Capture {
	return &Capture{
		sampleRate: sampleRate,
		channels:   channels,
		frameCh:    make(chan Frame, bufferFrames),
	}
}

// StartCapture opens the audio stream on deviceID (DefaultDevice for the
// system default). Fails if the device is unavailable.
func (c *Capture) StartCapture(deviceID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		slog.Warn("audio capture already running")
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStream, "portaudio initialize failed")
	}

	dev, err := c.resolveDevice(deviceID)
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}

	framesPerBuf := int(float64(c.sampleRate) * frameDuration.Seconds())

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: c.channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(c.sampleRate),
		FramesPerBuffer: framesPerBuf,
	}

	stream, err := portaudio.OpenStream(params, func(in []int16) {
		// Copy: portaudio reuses the callback buffer.
		data := make([]int16, len(in))
		copy(data, in)

		select {
		case c.frameCh <- Frame{Data: data, Captured: time.Now()}:
		default:
			slog.Debug("frame buffer full, dropping frame")
		}
	})
	if err != nil {
		_ = portaudio.Terminate()
		return apperrors.Wrapf(err, apperrors.CodeStream, "open stream on %q failed", dev.Name)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return apperrors.Wrapf(err, apperrors.CodeStream, "start stream on %q failed", dev.Name)
	}

	c.stream = stream
	c.running = true
	slog.Info("audio capture started", "device", dev.Name, "sample_rate", c.sampleRate)
	return nil
}

func (c *Capture) resolveDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == DefaultDevice {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStream, "no default input device")
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStream, "device enumeration failed")
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, apperrors.Newf(apperrors.CodeStream, "no such audio device: %d", deviceID)
	}
	dev := devices[deviceID]
	if dev.MaxInputChannels < c.channels {
		return nil, apperrors.Newf(apperrors.CodeStream, "device %q has no input channels", dev.Name)
	}
	return dev, nil
}

// NextFrame waits up to timeout for the next captured frame. Returns false on
// timeout, which the caller treats as "loop again", not an error.
func (c *Capture) NextFrame(timeout time.Duration) (Frame, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-c.frameCh:
		return f, true
	case <-timer.C:
		return Frame{}, false
	}
}

// StopCapture stops and releases the stream. Safe to call when not running.
func (c *Capture) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	var firstErr error
	if err := c.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := c.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	c.stream = nil

	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		return apperrors.Wrap(firstErr, apperrors.CodeStream, "audio capture stop failed")
	}
	slog.Info("audio capture stopped")
	return nil
}

// ListDevices enumerates input-capable devices. Side query, independent of
// any running capture.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStream, "portaudio initialize failed")
	}
	defer func() { _ = portaudio.Terminate() }()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStream, "device enumeration failed")
	}

	var result []Device
	for i, dev := range devices {
		if dev.MaxInputChannels < 1 {
			continue
		}
		result = append(result, Device{
			ID:                i,
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
		})
	}
	return result, nil
}
