package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"netflix-verifybot/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	confirmSelector = `[data-uia="set-primary-location-action"]`
	expiredSelector = `[data-uia="upl-invalid-token"]`
	otpSelector     = `[data-uia="travel-verification-otp"]`
	cookieSelector  = `#onetrust-accept-btn-handler`
)

var activeRodSessions atomic.Int32

// RodBrowser drives a headless Chromium via rod. Every call launches a
// fresh browser with its own temp profile and tears it down on every
// exit path.
type RodBrowser struct {
	navigationTimeout time.Duration
	controlTimeout    time.Duration
	confirmTimeout    time.Duration
}

// NewRodBrowser creates a RodBrowser with bounded default timeouts
func NewRodBrowser() *RodBrowser {
	return &RodBrowser{
		navigationTimeout: 20 * time.Second,
		controlTimeout:    10 * time.Second,
		confirmTimeout:    10 * time.Second,
	}
}

// Confirm opens the link, clicks the household confirmation control,
// and waits for the success indicator. Failures come back categorized
// as an AutomationError; no retries happen here.
func (rb *RodBrowser) Confirm(link, traceID string) error {
	locallog := logging.Log.WithField("trace_id", traceID)
	locallog.Info("Opening confirmation link with rod: ", link)

	return rb.withPage(link, traceID, func(page *rod.Page) error {
		confirmBtn, err := page.Timeout(rb.controlTimeout).Element(confirmSelector)
		if err != nil {
			// No confirm button: distinguish an expired link from a
			// template we failed to drive.
			if _, expErr := page.Timeout(5 * time.Second).Element(expiredSelector); expErr == nil {
				locallog.Info("Expired link detected (upl-invalid-token present)")
				return failure(ReasonLinkExpired, nil)
			}
			return failure(ReasonControlNotFound, err)
		}

		if err := confirmBtn.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return failure(ReasonControlNotFound, err)
		}

		// The control leaves the page once Netflix registers the click.
		if err := confirmBtn.Timeout(rb.confirmTimeout).WaitInvisible(); err != nil {
			return failure(ReasonConfirmationTimeout, err)
		}

		locallog.Info("Clicked on confirm button successfully")
		return nil
	})
}

// FetchCode opens a travel-verification link and reads the one-time
// code Netflix renders on the page.
func (rb *RodBrowser) FetchCode(link, traceID string) (string, error) {
	locallog := logging.Log.WithField("trace_id", traceID)
	locallog.Info("Opening verification link with rod: ", link)

	var code string
	err := rb.withPage(link, traceID, func(page *rod.Page) error {
		el, err := page.Timeout(rb.controlTimeout).Element(otpSelector)
		if err != nil {
			return failure(ReasonControlNotFound, err)
		}

		text, err := el.Text()
		if err != nil || text == "" {
			return failure(ReasonControlNotFound, err)
		}

		code = text
		locallog.Info("Verification code read from page")
		return nil
	})
	return code, err
}

// withPage launches a throwaway browser, navigates to link, runs fn on
// the loaded page, and guarantees teardown of the page, the browser,
// and the temp profile directory.
func (rb *RodBrowser) withPage(link, traceID string, fn func(page *rod.Page) error) error {
	activeRodSessions.Add(1)
	defer activeRodSessions.Add(-1)

	locallog := logging.Log.WithField("trace_id", traceID)

	tmpDir, err := os.MkdirTemp("", "rod-verifybot-*")
	if err != nil {
		return fmt.Errorf("creating temp user data dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			locallog.WithError(err).Warn("failed to remove temp user data dir")
		}
	}()

	u, err := launcher.New().
		Headless(true).
		NoSandbox(true).
		UserDataDir(tmpDir).
		Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connecting to browser: %w", err)
	}
	defer func() { _ = b.Close() }()

	page, err := b.Page(proto.TargetCreateTarget{URL: link})
	if err != nil {
		return failure(ReasonNavigationTimeout, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.Timeout(rb.navigationTimeout).WaitLoad(); err != nil {
		return failure(ReasonNavigationTimeout, err)
	}

	// Accept the cookie banner when it shows up, so it never covers
	// the confirmation control.
	if cookieBtn, err := page.Timeout(5 * time.Second).Element(cookieSelector); err == nil {
		locallog.Info("Cookie banner detected, accepting")
		_ = cookieBtn.Click(proto.InputMouseButtonLeft, 1)
	}

	return fn(page)
}

// StartCleanup starts a background goroutine that cleans up temp
// profile directories left behind by crashed runs.
func StartCleanup() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if activeRodSessions.Load() > 0 {
				logging.Log.Info("Skipping /tmp cleanup: active Rod sessions detected")
				continue
			}

			pattern := filepath.Join(os.TempDir(), "rod-verifybot-*")
			matches, err := filepath.Glob(pattern)
			if err != nil {
				logging.Log.WithError(err).Warn("Failed to glob temp directories")
				continue
			}

			for _, dir := range matches {
				if err := os.RemoveAll(dir); err != nil {
					logging.Log.WithError(err).Warnf("Failed to remove temp dir: %s", dir)
				} else {
					logging.Log.Infof("Cleaned up temp dir: %s", dir)
				}
			}
		}
	}()
}
