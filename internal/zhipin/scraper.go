package zhipin

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/tidwall/gjson"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/schema"
)

// Scraper drives the site through a browser session. Listing pages go
// through the authenticated persona when one exists; detail pages go
// through the anonymous persona so the two request streams stay apart.
type Scraper struct {
	session *browser.Session
}

func NewScraper(session *browser.Session) *Scraper {
	return &Scraper{session: session}
}

func (s *Scraper) listPage() playwright.Page {
	if p := s.session.MainPage(); p != nil {
		return p
	}
	return s.session.GuestPage()
}

func (s *Scraper) detailPage() playwright.Page {
	if p := s.session.GuestPage(); p != nil {
		return p
	}
	return s.session.MainPage()
}

var jobHrefPattern = regexp.MustCompile(`/job_detail/([^/]+)\.html`)

// FetchList renders one search-results page and returns its raw job
// summaries. The primary source is the joblist API responses the page
// itself fires; the rendered cards are a fallback when no API response
// was captured.
func (s *Scraper) FetchList(url string) ([]map[string]any, error) {
	page := s.listPage()
	if page == nil {
		return nil, fmt.Errorf("no browser persona available for listing")
	}

	var (
		mu        sync.Mutex
		bodies    [][]byte
		capturing = true
	)
	page.OnResponse(func(res playwright.Response) {
		mu.Lock()
		active := capturing
		mu.Unlock()
		if !active || !strings.HasPrefix(res.URL(), JobListAPIURL) {
			return
		}
		body, err := res.Body()
		if err != nil {
			return
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
	})
	defer func() {
		mu.Lock()
		capturing = false
		mu.Unlock()
	}()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(Timeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("%w: %s", browser.ErrScrapeTimeout, url)
	}
	if err := s.session.ResolveBlock(page); err != nil {
		return nil, err
	}
	s.session.DismissDialogs(page)

	container := page.Locator(".job-list-container, .job-empty-wrapper").First()
	if err := container.WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(Timeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("%w: job list container missing", browser.ErrScrapeTimeout)
	}
	text, err := container.TextContent()
	if err == nil && strings.Contains(text, "没有找到相关职位") {
		return nil, nil
	}

	if err := browser.SmoothScroll(page); err != nil {
		logger.WithError(err).Debugf("list page scroll failed")
	}
	time.Sleep(SmallSleep)

	mu.Lock()
	captured := bodies
	bodies = nil
	mu.Unlock()

	var jobs []map[string]any
	for _, body := range captured {
		if gjson.GetBytes(body, "message").String() != "Success" {
			continue
		}
		for _, item := range gjson.GetBytes(body, "zpData.jobList").Array() {
			var summary map[string]any
			if err := json.Unmarshal([]byte(item.Raw), &summary); err != nil {
				logger.WithError(err).Debugf("unparseable joblist entry dropped")
				continue
			}
			jobs = append(jobs, summary)
		}
	}
	if len(jobs) > 0 {
		return jobs, nil
	}
	return s.scrapeCards(container)
}

// scrapeCards rebuilds summaries from the rendered cards. A rendered card
// carries less than the API payload (no securityId), so these rows refresh
// listings but rarely qualify for a detail fetch.
func (s *Scraper) scrapeCards(container playwright.Locator) ([]map[string]any, error) {
	cards, err := container.Locator(".job-card-box").All()
	if err != nil {
		return nil, nil
	}
	var jobs []map[string]any
	for _, card := range cards {
		nameEl := card.Locator(".job-name").First()
		href, err := nameEl.GetAttribute("href")
		if err != nil {
			continue
		}
		m := jobHrefPattern.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		summary := map[string]any{"encryptJobId": m[1]}
		if v, err := nameEl.TextContent(); err == nil {
			summary["jobName"] = strings.TrimSpace(v)
		}
		if v, err := card.Locator(".company-location").First().TextContent(); err == nil {
			parts := strings.Split(strings.TrimSpace(v), "·")
			if len(parts) > 0 {
				summary["cityName"] = parts[0]
			}
			if len(parts) > 1 {
				summary["areaDistrict"] = parts[1]
			}
			if len(parts) > 2 {
				summary["businessDistrict"] = parts[2]
			}
		}
		if v, err := card.Locator(".job-salary").First().TextContent(); err == nil {
			summary["salaryDesc"] = schema.FixSalary(strings.TrimSpace(v))
		}
		if v, err := card.Locator(".boss-name").First().TextContent(); err == nil {
			summary["brandName"] = strings.TrimSpace(v)
		}
		if tags, err := card.Locator(".tag-list li").All(); err == nil {
			if len(tags) > 0 {
				if v, err := tags[0].TextContent(); err == nil {
					summary["jobExperience"] = strings.TrimSpace(v)
				}
			}
			if len(tags) > 1 {
				if v, err := tags[1].TextContent(); err == nil {
					summary["jobDegree"] = strings.TrimSpace(v)
				}
			}
		}
		jobs = append(jobs, summary)
	}
	return jobs, nil
}
