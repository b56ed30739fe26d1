// Package joiner automates meeting attendance through a headless browser.
package joiner

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
	"github.com/meetscribe/meetscribe/internal/trace"
)

const (
	navigateTimeout  = 30 * time.Second
	stepTimeout      = 5 * time.Second
	admissionTimeout = 60 * time.Second
	admissionPoll    = 2 * time.Second
)

// Meet drives a Chrome instance through the Google Meet join flow. The
// pre-join UI changes frequently, so every step short of navigation is
// best-effort: missing buttons are skipped, and success is judged by
// whether the in-call controls appear.
type Meet struct {
	cfg *config.Config

	browserCtx  context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc

	inMeeting atomic.Bool
}

// NewMeet creates a joiner; the browser is not launched until Initialize.
func NewMeet(cfg *config.Config) *Meet {
	return &Meet{cfg: cfg}
}

// Initialize launches the browser with flags that auto-grant microphone and
// camera access so the join flow never blocks on a permission prompt.
func (m *Meet) Initialize(ctx context.Context) error {
	if m.browserCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.BrowserHeadless),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return apperrors.Wrap(err, apperrors.CodeJoin, "launch browser")
	}

	m.browserCtx = browserCtx
	m.allocCancel = allocCancel
	m.ctxCancel = ctxCancel
	trace.Logger(ctx).Info("browser launched", "headless", m.cfg.BrowserHeadless)
	return nil
}

// Join navigates to the meeting and walks the pre-join flow: dismiss
// popups, set the display name, mute mic and camera, then request to join.
// Returns true only once the in-call controls are visible, meaning the bot
// was admitted.
func (m *Meet) Join(ctx context.Context, meetingURL, password string) (bool, error) {
	if m.browserCtx == nil {
		return false, apperrors.New(apperrors.CodeJoin, "joiner is not initialized")
	}
	if !strings.Contains(meetingURL, "meet.google.com") {
		return false, apperrors.Newf(apperrors.CodeJoin, "unsupported meeting url %q", meetingURL)
	}
	log := trace.Logger(ctx)

	navCtx, cancel := context.WithTimeout(m.browserCtx, navigateTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(meetingURL),
		chromedp.WaitReady("body"),
	); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeJoin, "open meeting page")
	}

	// Cookie consent and similar interstitials.
	m.try(chromedp.Click(`//button[.//span[contains(text(),"Accept all")]]`, chromedp.BySearch))

	// Display name prompt only appears for signed-out sessions.
	if m.try(chromedp.WaitVisible(`input[aria-label="Your name"]`, chromedp.ByQuery)) {
		m.try(chromedp.SendKeys(`input[aria-label="Your name"]`, m.cfg.MeetDisplayName, chromedp.ByQuery))
	}

	m.try(chromedp.Click(`[aria-label*="Turn off microphone"]`, chromedp.ByQuery))
	m.try(chromedp.Click(`[aria-label*="Turn off camera"]`, chromedp.ByQuery))

	clicked := false
	for _, xpath := range []string{
		`//button[.//span[contains(text(),"Join now")]]`,
		`//button[.//span[contains(text(),"Ask to join")]]`,
		`//span[contains(text(),"Join now")]`,
		`//span[contains(text(),"Ask to join")]`,
	} {
		if m.try(chromedp.Click(xpath, chromedp.BySearch)) {
			clicked = true
			break
		}
	}
	if !clicked {
		return false, apperrors.New(apperrors.CodeJoin, "join button not found on pre-join screen")
	}
	log.Info("join requested, waiting for admission", "meeting_url", meetingURL)

	deadline := time.Now().Add(admissionTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return false, apperrors.Wrap(err, apperrors.CodeCancelled, "join wait cancelled")
		}
		if m.try(chromedp.WaitVisible(`[aria-label*="Leave call"]`, chromedp.ByQuery)) {
			m.inMeeting.Store(true)
			log.Info("admitted to meeting")
			return true, nil
		}
		time.Sleep(admissionPoll)
	}
	return false, nil
}

// Leave clicks out of the call. Best-effort, the call may already be over.
func (m *Meet) Leave(ctx context.Context) error {
	if m.browserCtx == nil || !m.inMeeting.Load() {
		return nil
	}
	m.try(chromedp.Click(`[aria-label*="Leave call"]`, chromedp.ByQuery))
	m.inMeeting.Store(false)
	trace.Logger(ctx).Info("left meeting")
	return nil
}

// Close shuts the browser down. Safe to call repeatedly.
func (m *Meet) Close(ctx context.Context) error {
	if m.browserCtx == nil {
		return nil
	}
	m.ctxCancel()
	m.allocCancel()
	m.browserCtx = nil
	m.inMeeting.Store(false)
	trace.Logger(ctx).Info("browser closed")
	return nil
}

// InMeeting reports whether the bot has been admitted and not yet left.
func (m *Meet) InMeeting() bool { return m.inMeeting.Load() }

// try runs actions with a short timeout, treating failure as absence.
func (m *Meet) try(actions ...chromedp.Action) bool {
	tctx, cancel := context.WithTimeout(m.browserCtx, stepTimeout)
	defer cancel()
	return chromedp.Run(tctx, actions...) == nil
}
