// Package schema holds the typed shape of scraped payloads and the
// structural checks applied at the scrape boundary. A summary is the
// lightweight listing-page record; a detail is the full posting payload.
package schema

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalid marks a payload that fails structural validation.
var ErrInvalid = errors.New("payload failed schema validation")

// JobDetail is the full scraped record for one posting.
type JobDetail struct {
	SecurityID         string             `json:"securityId,omitempty"`
	Lid                string             `json:"lid,omitempty"`
	JobInfo            JobInfo            `json:"jobInfo"`
	BossInfo           BossInfo           `json:"bossInfo"`
	BrandComInfo       BrandComInfo       `json:"brandComInfo"`
	AtsOnlineApplyInfo AtsOnlineApplyInfo `json:"atsOnlineApplyInfo"`
	Meta               map[string]any     `json:"meta,omitempty"`
}

type JobInfo struct {
	EncryptID       string   `json:"encryptId"`
	JobName         string   `json:"jobName"`
	SalaryDesc      string   `json:"salaryDesc,omitempty"`
	ExperienceName  string   `json:"experienceName,omitempty"`
	DegreeName      string   `json:"degreeName,omitempty"`
	EncryptUserID   string   `json:"encryptUserId,omitempty"`
	LocationName    string   `json:"locationName,omitempty"`
	PostDescription string   `json:"postDescription,omitempty"`
	Address         string   `json:"address,omitempty"`
	ShowSkills      []string `json:"showSkills,omitempty"`
	JobStatusDesc   string   `json:"jobStatusDesc,omitempty"`
	Longitude       any      `json:"longitude,omitempty"`
	Latitude        any      `json:"latitude,omitempty"`
	StaticMapURL    string   `json:"staticMapUrl,omitempty"`
}

type BossInfo struct {
	Name           string `json:"name"`
	Title          string `json:"title,omitempty"`
	ActiveTimeDesc string `json:"activeTimeDesc,omitempty"`
	Tiny           string `json:"tiny,omitempty"`
}

type BrandComInfo struct {
	EncryptBrandID string   `json:"encryptBrandId,omitempty"`
	BrandName      string   `json:"brandName"`
	ScaleName      string   `json:"scaleName,omitempty"`
	IndustryName   string   `json:"industryName,omitempty"`
	Introduce      string   `json:"introduce,omitempty"`
	Labels         []string `json:"labels,omitempty"`
}

type AtsOnlineApplyInfo struct {
	AlreadyApply any `json:"alreadyApply,omitempty"`
}

// ValidSummary reports whether a raw listing-page record carries the fields
// a detail fetch depends on.
func ValidSummary(summary map[string]any) bool {
	return str(summary, "encryptJobId") != "" &&
		str(summary, "securityId") != "" &&
		str(summary, "jobName") != ""
}

// ValidDetail reports whether a raw detail payload has the structure the
// acceptability evaluation depends on.
func ValidDetail(detail map[string]any) bool {
	raw, err := json.Marshal(detail)
	if err != nil {
		return false
	}
	return ValidDetailRaw(raw)
}

// ValidDetailRaw is ValidDetail over an encoded payload.
func ValidDetailRaw(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	return gjson.GetBytes(raw, "jobInfo.encryptId").String() != "" &&
		gjson.GetBytes(raw, "jobInfo.jobName").String() != "" &&
		gjson.GetBytes(raw, "jobInfo.postDescription").String() != "" &&
		gjson.GetBytes(raw, "bossInfo.name").String() != "" &&
		gjson.GetBytes(raw, "brandComInfo.brandName").String() != ""
}

// SummaryToDetail maps a listing-page record onto a detail skeleton that
// the browser detail scrape then fills in.
func SummaryToDetail(summary map[string]any) map[string]any {
	gps, _ := summary["gps"].(map[string]any)
	if gps == nil {
		gps = map[string]any{}
	}
	return map[string]any{
		"securityId": summary["securityId"],
		"lid":        summary["lid"],
		"jobInfo": map[string]any{
			"encryptId":       summary["encryptJobId"],
			"salaryDesc":      summary["salaryDesc"],
			"jobName":         summary["jobName"],
			"experienceName":  summary["jobExperience"],
			"degreeName":      summary["jobDegree"],
			"encryptUserId":   summary["encryptBossId"],
			"locationName":    summary["cityName"],
			"postDescription": summary["postDescription"],
			"longitude":       gps["longitude"],
			"latitude":        gps["latitude"],
		},
		"bossInfo": map[string]any{
			"name":           summary["bossName"],
			"title":          summary["bossTitle"],
			"activeTimeDesc": summary["activeTimeDesc"],
		},
		"brandComInfo": map[string]any{
			"encryptBrandId": summary["encryptBrandId"],
			"brandName":      summary["brandName"],
			"scaleName":      summary["brandScaleName"],
			"industryName":   summary["brandIndustry"],
		},
		"atsOnlineApplyInfo": map[string]any{
			"alreadyApply": summary["contact"],
		},
	}
}

// JobID extracts the encrypted job id from a raw detail payload.
func JobID(raw []byte) string {
	return gjson.GetBytes(raw, "jobInfo.encryptId").String()
}

// FixSalary maps the site's private-use obfuscation glyphs back to the
// digits they render as, leaving every other rune alone.
func FixSalary(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= 0xE031 && r <= 0xE03A {
			b.WriteRune('0' + (r - 0xE031))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
