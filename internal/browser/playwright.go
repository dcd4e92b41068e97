// Package browser owns the two browser personas: an authenticated
// persistent context and a throwaway anonymous context. All site traffic
// flows through one of them.
package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-zhipin-automation/internal/logger"
)

// ErrScrapeTimeout marks an element or page that did not appear in time.
var ErrScrapeTimeout = errors.New("scrape timed out")

// ErrVerificationWall marks an unresolvable verification block; the run
// cannot continue past it.
var ErrVerificationWall = errors.New("verification wall could not be resolved")

// Pacing the site tolerates without throwing up verification walls. The
// scrape flows share these so both personas move at the same speed.
const (
	NavTimeout = 25 * time.Second
	SmallSleep = 1200 * time.Millisecond
	LargeSleep = 6 * time.Second
	MaxRetries = 3

	loginPollInterval = 6 * time.Minute
)

// Options selects which personas a session creates. SiteURL, LoginURL and
// VerifyURL tell the session where the site lives; the site package stays a
// consumer of this one, never the other way around.
type Options struct {
	LoggedIn      bool
	Guest         bool
	UserDataDir   string
	CookiesPath   string
	ScreenshotDir string
	Headless      bool
	SiteURL       string
	LoginURL      string
	VerifyURL     string
}

// Session holds the Playwright lifecycle and both persona pages.
type Session struct {
	pw         *playwright.Playwright
	guestOwner playwright.Browser
	loggedIn   playwright.BrowserContext
	guest      playwright.BrowserContext
	mainPage   playwright.Page
	guestPage  playwright.Page
	shots      *ScreenshotDebugger
	siteURL    string
	loginURL   string
	verifyURL  string
}

// NewSession starts Playwright and creates the requested personas. The
// authenticated persona reuses the persistent user-data directory so a
// completed login survives restarts.
func NewSession(opts Options) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	s := &Session{
		pw:        pw,
		shots:     NewScreenshotDebugger(opts.ScreenshotDir),
		siteURL:   opts.SiteURL,
		loginURL:  opts.LoginURL,
		verifyURL: opts.VerifyURL,
	}

	launchArgs := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-sync",
		"--disable-translate",
		"--disable-background-networking",
		"--no-first-run",
		"--no-default-browser-check",
		"--force-color-profile=srgb",
	}

	if opts.LoggedIn {
		ctx, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir,
			playwright.BrowserTypeLaunchPersistentContextOptions{
				Headless: playwright.Bool(opts.Headless),
				Args:     launchArgs,
			})
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to launch authenticated persona: %w", err)
		}
		s.loggedIn = ctx
		if err := blockAnalytics(ctx); err != nil {
			logger.WithError(err).Warnf("request blocking unavailable for authenticated persona")
		}
		if cookies, err := LoadCookies(opts.CookiesPath); err == nil && len(cookies) > 0 {
			if err := ctx.AddCookies(cookies); err != nil {
				logger.WithError(err).Warnf("could not add cookies to authenticated persona")
			}
		}
		if s.mainPage, err = ctx.NewPage(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open authenticated page: %w", err)
		}
	}

	if opts.Guest {
		browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     launchArgs,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to launch anonymous persona: %w", err)
		}
		s.guestOwner = browser
		ctx, err := browser.NewContext()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create anonymous context: %w", err)
		}
		s.guest = ctx
		if err := blockAnalytics(ctx); err != nil {
			logger.WithError(err).Warnf("request blocking unavailable for anonymous persona")
		}
		if s.guestPage, err = ctx.NewPage(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open anonymous page: %w", err)
		}
	}

	return s, nil
}

// MainPage is the authenticated persona's page; nil when not created.
func (s *Session) MainPage() playwright.Page { return s.mainPage }

// GuestPage is the anonymous persona's page; nil when not created.
func (s *Session) GuestPage() playwright.Page { return s.guestPage }

// Screenshots exposes the debug screenshot helper.
func (s *Session) Screenshots() *ScreenshotDebugger { return s.shots }

func (s *Session) Close() {
	if s.guest != nil {
		_ = s.guest.Close()
	}
	if s.guestOwner != nil {
		_ = s.guestOwner.Close()
	}
	if s.loggedIn != nil {
		_ = s.loggedIn.Close()
	}
	if s.pw != nil {
		_ = s.pw.Stop()
	}
}

// IsLoggedIn checks the user navigation widget on the current page.
func (s *Session) IsLoggedIn() bool {
	if s.mainPage == nil {
		return false
	}
	nav := s.mainPage.Locator(".user-nav").First()
	html, err := nav.InnerHTML(playwright.LocatorInnerHTMLOptions{
		Timeout: playwright.Float(float64(LargeSleep.Milliseconds())),
	})
	if err != nil {
		return false
	}
	return !strings.Contains(html, "未登录")
}

// WaitForLogin blocks until a human completes login in the authenticated
// persona. This is the one intentionally unbounded wait in the system.
func (s *Session) WaitForLogin() error {
	if s.mainPage == nil {
		return errors.New("authenticated persona not created")
	}
	if _, err := s.mainPage.Goto(s.siteURL, gotoOpts()); err != nil {
		return fmt.Errorf("failed to open site: %w", err)
	}
	time.Sleep(LargeSleep)
	for !s.IsLoggedIn() {
		logger.Infof("Waiting for login, complete it in the browser window")
		if _, err := s.mainPage.Goto(s.loginURL, gotoOpts()); err != nil {
			logger.WithError(err).Warnf("login page navigation failed, retrying")
		}
		time.Sleep(loginPollInterval)
	}
	logger.Infof("Login confirmed")
	return nil
}

// ResolveBlock waits out a slider-verification wall with bounded polling,
// then inspects terminal error pages. An error banner that says the page
// cannot continue is fatal and leaves a diagnostic screenshot behind.
func (s *Session) ResolveBlock(page playwright.Page) error {
	for i := 0; i < MaxRetries && s.onVerifyWall(page); i++ {
		time.Sleep(NavTimeout)
	}
	if s.onVerifyWall(page) {
		_ = s.shots.CaptureAndLog(page, "verify-slider", "verification wall still blocking")
		return ErrVerificationWall
	}

	url := page.URL()
	if !strings.Contains(url, "job_detail") && !strings.Contains(url, "403.html") && !strings.Contains(url, "error.html") {
		return nil
	}
	banner := page.Locator(".error-content").First()
	text, err := banner.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(float64(LargeSleep.Milliseconds())),
	})
	if err != nil {
		return nil
	}
	if strings.Contains(text, "无法继续") {
		_ = s.shots.CaptureAndLog(page, "blocked", "site refused to continue")
		return fmt.Errorf("%w: %s", ErrVerificationWall, strings.TrimSpace(text))
	}
	return nil
}

// DismissDialogs closes safety/chat nag dialogs that cover the page. Only
// dialogs without an unblock action are closed.
func (s *Session) DismissDialogs(page playwright.Page) {
	dialogs, err := page.Locator(".dialog-container").All()
	if err != nil {
		return
	}
	for _, dialog := range dialogs {
		visible, _ := dialog.IsVisible()
		if !visible {
			continue
		}
		text, err := dialog.TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
		})
		if err != nil {
			continue
		}
		if (strings.Contains(text, "安全问题") || strings.Contains(text, "沟通")) && !strings.Contains(text, "解除") {
			_ = dialog.Locator(".close").First().Click(playwright.LocatorClickOptions{
				Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
			})
		}
	}
}

func (s *Session) onVerifyWall(page playwright.Page) bool {
	return s.verifyURL != "" && strings.HasPrefix(page.URL(), s.verifyURL)
}

func gotoOpts() playwright.PageGotoOptions {
	return playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(NavTimeout.Milliseconds())),
	}
}
