package zhipin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/schema"
)

var (
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	fundPattern = regexp.MustCompile(`(?s)\d.*`)
)

// FetchDetail opens the posting page in the anonymous persona and fills
// the given detail skeleton from the rendered content. Skeleton fields
// already populated by the listing payload are kept; page content only
// fills the gaps.
func (s *Scraper) FetchDetail(detail map[string]any) (map[string]any, error) {
	page := s.detailPage()
	if page == nil {
		return nil, fmt.Errorf("no browser persona available for detail")
	}
	jobID := subStr(detail, "jobInfo", "encryptId")
	if jobID == "" {
		return nil, fmt.Errorf("%w: detail skeleton missing job id", schema.ErrInvalid)
	}

	if _, err := page.Goto(DetailPageURL(jobID), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(Timeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("%w: job %s", browser.ErrScrapeTimeout, jobID)
	}
	if err := s.session.ResolveBlock(page); err != nil {
		return nil, err
	}
	s.session.DismissDialogs(page)

	header := page.Locator(".detail-content-header").First()
	if err := header.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(LargeSleep.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("%w: detail header for job %s", browser.ErrScrapeTimeout, jobID)
	}

	jobInfo := subMap(detail, "jobInfo")
	bossInfo := subMap(detail, "bossInfo")
	brandInfo := subMap(detail, "brandComInfo")
	applyInfo := subMap(detail, "atsOnlineApplyInfo")

	if v, ok := textOf(page, ".btn.btn-more, .btn.btn-startchat"); ok {
		applyInfo["alreadyApply"] = !strings.Contains(v, "立即")
	}
	if empty(jobInfo["showSkills"]) {
		skills := []string{}
		if items, err := page.Locator("ul.job-keyword-list li").All(); err == nil {
			for _, item := range items {
				if v, err := item.TextContent(); err == nil {
					skills = append(skills, strings.TrimSpace(v))
				}
			}
		}
		jobInfo["showSkills"] = skills
	}
	if empty(brandInfo["labels"]) {
		labels := []string{}
		seen := map[string]bool{}
		if tags, err := page.Locator("div.job-tags span").All(); err == nil {
			for _, tag := range tags {
				if v, err := tag.TextContent(); err == nil {
					t := strings.TrimSpace(v)
					if t != "" && !seen[t] {
						seen[t] = true
						labels = append(labels, t)
					}
				}
			}
		}
		brandInfo["labels"] = labels
	}
	if str(jobInfo, "jobStatusDesc") == "" {
		if v, ok := textOf(page, ".job-status"); ok {
			jobInfo["jobStatusDesc"] = v
		}
	}
	if str(jobInfo, "address") == "" {
		if v, ok := textOf(page, ".location-address"); ok {
			jobInfo["address"] = v
		}
		locationMap := page.Locator(".job-location-map.js-open-map").First()
		if lat, err := locationMap.GetAttribute("data-lat", playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
		}); err == nil && lat != "" {
			parts := strings.Split(lat, ",")
			if len(parts) == 2 {
				jobInfo["longitude"] = parts[0]
				jobInfo["latitude"] = parts[1]
			}
		}
		if src, err := page.Locator("div.job-location-map img").First().GetAttribute("src", playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
		}); err == nil && src != "" {
			jobInfo["staticMapUrl"] = src
		}
	}
	if str(brandInfo, "introduce") == "" {
		if v, ok := textOf(page, ".job-sec-text.fold-text"); ok {
			brandInfo["introduce"] = v
		}
	}
	if str(bossInfo, "tiny") == "" {
		if src, err := page.Locator("div.detail-figure img").First().GetAttribute("src", playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
		}); err == nil && src != "" {
			bossInfo["tiny"] = src
		}
	}
	if v, ok := textOf(page, ".job-sec-text"); ok {
		jobInfo["postDescription"] = v
	}
	if v, ok := textOf(page, ".sider-company .icon-scale"); ok && strings.Contains(v, "人") {
		brandInfo["scaleName"] = v
	}
	if v, ok := textOf(page, ".boss-active-time, .boss-online-tag"); ok {
		bossInfo["activeTimeDesc"] = v
	}

	meta := map[string]any{}
	if v, ok := textOf(page, ".res-time"); ok {
		if m := datePattern.FindString(v); m != "" {
			meta["resTime"] = m
		}
	}
	if v, ok := textOf(page, "p.gray"); ok {
		if m := datePattern.FindString(v); m != "" {
			meta["updatedTime"] = m
		}
	}
	if crumbs, err := page.Locator(".pos-bread.city-job-guide a").All(); err == nil && len(crumbs) > 0 {
		names := []string{}
		for _, crumb := range crumbs {
			if v, err := crumb.TextContent(); err == nil {
				names = append(names, strings.TrimSpace(v))
			}
		}
		meta["breadcrumbs"] = names
	}
	if v, ok := textOf(page, ".company-fund"); ok {
		if m := fundPattern.FindString(v); m != "" {
			meta["companyFund"] = strings.TrimSpace(m)
		}
	}
	if secs, err := page.Locator("p.school-job-sec span").All(); err == nil && len(secs) > 1 {
		if v, err := secs[0].TextContent(); err == nil {
			meta["graduationYear"] = strings.TrimSpace(strings.ReplaceAll(v, "毕业时间：", ""))
		}
		if v, err := secs[1].TextContent(); err == nil {
			meta["recruitmentDeadline"] = strings.TrimSpace(strings.ReplaceAll(v, "招聘截止日期：", ""))
		}
	}
	detail["meta"] = meta

	detail["jobInfo"] = jobInfo
	detail["bossInfo"] = bossInfo
	detail["brandComInfo"] = brandInfo
	detail["atsOnlineApplyInfo"] = applyInfo
	return detail, nil
}

func textOf(page playwright.Page, selector string) (string, bool) {
	v, err := page.Locator(selector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(float64(SmallSleep.Milliseconds())),
	})
	if err != nil {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func subMap(doc map[string]any, key string) map[string]any {
	if m, ok := doc[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	doc[key] = m
	return m
}

func subStr(doc map[string]any, key, field string) string {
	return str(subMap(doc, key), field)
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
