// Package zhipin drives the job site itself: URL construction, the two
// browser personas' scrape flows, and the contact flow.
package zhipin

import (
	"fmt"
	"net/url"

	"go-zhipin-automation/internal/browser"
)

const (
	BaseURL         = "https://www.zhipin.com"
	JobURL          = BaseURL + "/web/geek/job"
	CityAPIURL      = BaseURL + "/wapi/zpCommon/data/city.json"
	JobDetailAPIURL = BaseURL + "/wapi/zpgeek/job/detail.json"
	JobDetailURL    = BaseURL + "/job_detail"
	JobListAPIURL   = BaseURL + "/wapi/zpgeek/search/joblist.json"
	VerifySliderURL = BaseURL + "/web/user/safe/verify-slider"
	LoginURL        = BaseURL + "/web/user/?ka=header-login"

	MaskCompanyAPIURL  = BaseURL + "/wapi/zpgeek/maskcompany/group/list.json"
	InteractionAPIURL  = BaseURL + "/wapi/zprelation/interaction/geekGetJob"
	DeliverListAPIURL  = BaseURL + "/wapi/zprelation/resume/geekDeliverList"

	// Pacing is owned by the browser package; aliased here so HTTP
	// consumers of the site endpoints share the same rhythm.
	Timeout    = browser.NavTimeout
	SmallSleep = browser.SmallSleep
	LargeSleep = browser.LargeSleep

	// Employer-scale marker that exempts a brand from the
	// one-contact-per-brand rule.
	LargeCompanyMarker = "1000人"
)

// SearchParams is one point of the city x query x salary sweep.
type SearchParams struct {
	CityCode   int
	Query      string
	Salary     string
	Experience string
	Degree     string
	Scale      string
}

// SearchURL builds a search-results page URL for one sweep point.
func SearchURL(p SearchParams) string {
	q := url.Values{}
	q.Set("city", fmt.Sprintf("%d", p.CityCode))
	q.Set("query", p.Query)
	if p.Salary != "" {
		q.Set("salary", p.Salary)
	}
	if p.Experience != "" {
		q.Set("experience", p.Experience)
	}
	if p.Degree != "" {
		q.Set("degree", p.Degree)
	}
	if p.Scale != "" {
		q.Set("scale", p.Scale)
	}
	return JobURL + "?" + q.Encode()
}

// DetailProbeURL builds the anonymous detail API URL for a security id.
func DetailProbeURL(securityID string) string {
	q := url.Values{}
	q.Set("securityId", securityID)
	return JobDetailAPIURL + "?" + q.Encode()
}

// DetailPageURL builds the job detail page URL for an encrypted job id.
func DetailPageURL(jobID string) string {
	return fmt.Sprintf("%s/%s.html", JobDetailURL, jobID)
}
