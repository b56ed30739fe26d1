package joiner

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// platform is the per-provider join surface Auto dispatches to.
type platform interface {
	Initialize(ctx context.Context) error
	Join(ctx context.Context, meetingURL, password string) (bool, error)
	Leave(ctx context.Context) error
	Close(ctx context.Context) error
	InMeeting() bool
}

// Auto routes join requests to the Meet or Zoom joiner based on the meeting
// URL. The platform's browser launches on the first join that needs it, so
// only the platform actually used pays the launch cost.
type Auto struct {
	mu     sync.Mutex
	meet   platform
	zoom   platform
	active platform
}

// New creates a joiner covering all supported platforms.
func New(cfg *config.Config) *Auto {
	return &Auto{meet: NewMeet(cfg), zoom: NewZoom(cfg)}
}

// Initialize is deferred: the platform is not known until the meeting URL
// arrives, so browser launch happens inside Join.
func (a *Auto) Initialize(ctx context.Context) error { return nil }

// Join launches the matching platform joiner and delegates.
func (a *Auto) Join(ctx context.Context, meetingURL, password string) (bool, error) {
	p, err := a.route(meetingURL)
	if err != nil {
		return false, err
	}
	if err := p.Initialize(ctx); err != nil {
		return false, err
	}

	joined, err := p.Join(ctx, meetingURL, password)
	if joined {
		a.mu.Lock()
		a.active = p
		a.mu.Unlock()
	}
	return joined, err
}

func (a *Auto) route(meetingURL string) (platform, error) {
	switch {
	case strings.Contains(meetingURL, "meet.google.com"):
		return a.meet, nil
	case strings.Contains(meetingURL, "zoom.us"):
		return a.zoom, nil
	}
	return nil, apperrors.Newf(apperrors.CodeJoin, "no joiner for meeting url %q", meetingURL)
}

// Leave leaves the active meeting, if any.
func (a *Auto) Leave(ctx context.Context) error {
	a.mu.Lock()
	p := a.active
	a.active = nil
	a.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Leave(ctx)
}

// Close shuts down every platform that launched a browser.
func (a *Auto) Close(ctx context.Context) error {
	a.mu.Lock()
	a.active = nil
	a.mu.Unlock()
	return errors.Join(a.meet.Close(ctx), a.zoom.Close(ctx))
}

// InMeeting reports whether any platform holds an active meeting.
func (a *Auto) InMeeting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil && a.active.InMeeting()
}
