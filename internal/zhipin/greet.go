package zhipin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/logger"
)

// ErrRateLimited signals that the site refused further outreach for the
// day. It is fatal to the whole outreach run, not just the current job.
var ErrRateLimited = errors.New("outreach quota reached")

// GreetResult classifies how a contact attempt ended.
type GreetResult int

const (
	// GreetContacted means the contact action was triggered.
	GreetContacted GreetResult = iota
	// GreetResolved means the posting needs no contact: it is gone, or
	// a conversation already exists.
	GreetResolved
)

// Greet opens the posting page in the authenticated persona and runs the
// contact flow. compose is called with the job name and description when
// a chat composer opens and must return the message to send; it is only
// invoked on that path. Greet performs no store writes.
func (s *Scraper) Greet(jobID string, compose func(name, description string) string) (GreetResult, error) {
	page := s.session.MainPage()
	if page == nil {
		return 0, errors.New("authenticated persona required for outreach")
	}

	if _, err := page.Goto(DetailPageURL(jobID), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(Timeout.Milliseconds())),
	}); err != nil {
		return 0, fmt.Errorf("%w: job %s", browser.ErrScrapeTimeout, jobID)
	}

	action := page.Locator(".btn.btn-more, .btn.btn-startchat, .error-content").First()
	text, err := action.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(float64(Timeout.Milliseconds())),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: no contact control on job %s", browser.ErrScrapeTimeout, jobID)
	}
	if strings.Contains(text, "继续") || strings.Contains(text, "更多") || strings.Contains(text, "页面不存在") {
		return GreetResolved, nil
	}
	if strings.Contains(text, "异常") {
		return 0, fmt.Errorf("job %s page flagged anomalous: %s", jobID, strings.TrimSpace(text))
	}

	description, _ := textOf(page, ".job-sec-text")
	name, _ := textOf(page, "h1")
	redirectURL := ""
	if v, err := action.GetAttribute("redirect-url", playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
	}); err == nil && v != "" {
		redirectURL = BaseURL + v
	}

	if err := action.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(Timeout.Milliseconds())),
	}); err != nil {
		return 0, fmt.Errorf("%w: contact button on job %s", browser.ErrScrapeTimeout, jobID)
	}

	if dialog, err := page.Locator(".dialog-con").First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(float64(Timeout.Milliseconds())),
	}); err == nil && strings.Contains(dialog, "已达上限") {
		return 0, fmt.Errorf("%w: job %s", ErrRateLimited, jobID)
	}

	s.sendGreeting(page, jobID, name, description, redirectURL, compose)
	s.session.DismissDialogs(page)
	return GreetContacted, nil
}

// sendGreeting types the opening message when a chat composer is
// reachable. Every failure here is logged and swallowed: the contact
// itself already went through.
func (s *Scraper) sendGreeting(page playwright.Page, jobID, name, description, redirectURL string, compose func(name, description string) string) {
	probe, err := page.Locator(".dialog-con, .chat-input").First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(float64(Timeout.Milliseconds())),
	})
	if err != nil {
		return
	}
	if !strings.Contains(page.URL(), "chat") && !strings.Contains(probe, "发送") {
		return
	}
	if !strings.Contains(page.URL(), "chat") && redirectURL != "" {
		if _, err := page.Goto(redirectURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(Timeout.Milliseconds())),
		}); err != nil {
			logger.WithError(err).Warnf("chat redirect failed for job %s", jobID)
			return
		}
	}

	greeting := compose(name, description)
	if greeting == "" {
		return
	}
	input := page.Locator(".input-area .chat-input").First()
	if err := input.Clear(); err != nil {
		logger.WithError(err).Warnf("chat composer unavailable for job %s", jobID)
		return
	}
	if err := input.PressSequentially(greeting, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(40),
	}); err != nil {
		logger.WithError(err).Warnf("typing greeting failed for job %s", jobID)
		return
	}
	time.Sleep(SmallSleep)
	if err := page.Locator(".btn-v2.btn-sure-v2.btn-send, .send-message").First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(Timeout.Milliseconds())),
	}); err != nil {
		logger.WithError(err).Warnf("sending greeting failed for job %s", jobID)
		return
	}
	time.Sleep(2 * SmallSleep)
	logger.WithField("job", jobID).Infof("greeting sent")
}
