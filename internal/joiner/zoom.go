package joiner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
	"github.com/meetscribe/meetscribe/internal/trace"
)

// Zoom drives a Chrome instance through the Zoom web-client join flow.
// Like the Meet joiner, everything past navigation is best-effort: the
// pre-join page varies by account settings, and success is judged by the
// in-call controls appearing.
type Zoom struct {
	cfg *config.Config

	browserCtx  context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc

	inMeeting atomic.Bool
}

// NewZoom creates a joiner; the browser is not launched until Initialize.
func NewZoom(cfg *config.Config) *Zoom {
	return &Zoom{cfg: cfg}
}

// Initialize launches the browser. The fake media device flag keeps the web
// client from failing when no real microphone is exposed to Chrome.
func (z *Zoom) Initialize(ctx context.Context) error {
	if z.browserCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", z.cfg.BrowserHeadless),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("use-fake-device-for-media-stream", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return apperrors.Wrap(err, apperrors.CodeJoin, "launch browser")
	}

	z.browserCtx = browserCtx
	z.allocCancel = allocCancel
	z.ctxCancel = ctxCancel
	trace.Logger(ctx).Info("browser launched", "headless", z.cfg.BrowserHeadless)
	return nil
}

// Join navigates to the meeting, switches to the browser client, fills in
// the display name and password, and requests to join. Returns true once
// the in-call controls are visible.
func (z *Zoom) Join(ctx context.Context, meetingURL, password string) (bool, error) {
	if z.browserCtx == nil {
		return false, apperrors.New(apperrors.CodeJoin, "joiner is not initialized")
	}
	log := trace.Logger(ctx)

	navCtx, cancel := context.WithTimeout(z.browserCtx, navigateTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(meetingURL),
		chromedp.WaitReady("body"),
	); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeJoin, "open meeting page")
	}

	// The meeting link lands on an app-launch page; switch to the web
	// client when the link is offered.
	if z.try(chromedp.Click(`//a[contains(translate(text(),"JOIN","join"),"join from your browser")]`, chromedp.BySearch)) {
		z.try(chromedp.WaitReady("body"))
	}

	if z.try(chromedp.WaitVisible(`input[type="text"]`, chromedp.ByQuery)) {
		z.try(chromedp.SendKeys(`input[type="text"]`, z.cfg.ZoomDisplayName, chromedp.ByQuery))
	}
	if password != "" {
		if z.try(chromedp.WaitVisible(`input[type="password"]`, chromedp.ByQuery)) {
			z.try(chromedp.SendKeys(`input[type="password"]`, password, chromedp.ByQuery))
		}
	}

	if !z.try(chromedp.Click(`//button[contains(text(),"Join")]`, chromedp.BySearch)) {
		return false, apperrors.New(apperrors.CodeJoin, "join button not found on pre-join screen")
	}
	log.Info("join requested, waiting for admission", "meeting_url", meetingURL)

	deadline := time.Now().Add(admissionTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return false, apperrors.Wrap(err, apperrors.CodeCancelled, "join wait cancelled")
		}
		for _, sel := range []string{
			`button[aria-label*="Mute"]`,
			`button[aria-label*="Leave"]`,
			`.meeting-client-inner`,
		} {
			if z.try(chromedp.WaitVisible(sel, chromedp.ByQuery)) {
				z.inMeeting.Store(true)
				log.Info("admitted to meeting")
				return true, nil
			}
		}
		time.Sleep(admissionPoll)
	}
	return false, nil
}

// Leave clicks out of the call, confirming when the web client asks.
func (z *Zoom) Leave(ctx context.Context) error {
	if z.browserCtx == nil || !z.inMeeting.Load() {
		return nil
	}
	if z.try(chromedp.Click(`//button[contains(text(),"Leave")]`, chromedp.BySearch)) {
		z.try(chromedp.Click(`//button[contains(text(),"Leave Meeting")]`, chromedp.BySearch))
	}
	z.inMeeting.Store(false)
	trace.Logger(ctx).Info("left meeting")
	return nil
}

// Close shuts the browser down. Safe to call repeatedly.
func (z *Zoom) Close(ctx context.Context) error {
	if z.browserCtx == nil {
		return nil
	}
	z.ctxCancel()
	z.allocCancel()
	z.browserCtx = nil
	z.inMeeting.Store(false)
	trace.Logger(ctx).Info("browser closed")
	return nil
}

// InMeeting reports whether the bot has been admitted and not yet left.
func (z *Zoom) InMeeting() bool { return z.inMeeting.Load() }

func (z *Zoom) try(actions ...chromedp.Action) bool {
	tctx, cancel := context.WithTimeout(z.browserCtx, stepTimeout)
	defer cancel()
	return chromedp.Run(tctx, actions...) == nil
}
