package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSummary() map[string]any {
	return map[string]any{
		"encryptJobId":   "job-1",
		"securityId":     "sec-1",
		"jobName":        "Go后端工程师",
		"bossName":       "张三",
		"brandName":      "Acme",
		"salaryDesc":     "20-30K",
		"cityName":       "上海",
		"encryptBossId":  "boss-1",
		"encryptBrandId": "brand-1",
	}
}

func TestValidSummary(t *testing.T) {
	assert.True(t, ValidSummary(validSummary()))

	s := validSummary()
	delete(s, "securityId")
	assert.False(t, ValidSummary(s))

	assert.False(t, ValidSummary(map[string]any{}))
}

func TestValidDetail(t *testing.T) {
	detail := SummaryToDetail(validSummary())
	jobInfo := detail["jobInfo"].(map[string]any)
	jobInfo["postDescription"] = "负责服务端开发"
	assert.True(t, ValidDetail(detail))

	jobInfo["postDescription"] = ""
	assert.False(t, ValidDetail(detail))
}

func TestSummaryToDetailMapsFields(t *testing.T) {
	s := validSummary()
	s["gps"] = map[string]any{"longitude": 121.47, "latitude": 31.23}

	detail := SummaryToDetail(s)

	jobInfo := detail["jobInfo"].(map[string]any)
	assert.Equal(t, "job-1", jobInfo["encryptId"])
	assert.Equal(t, "boss-1", jobInfo["encryptUserId"])
	assert.Equal(t, 121.47, jobInfo["longitude"])

	boss := detail["bossInfo"].(map[string]any)
	assert.Equal(t, "张三", boss["name"])

	brand := detail["brandComInfo"].(map[string]any)
	assert.Equal(t, "brand-1", brand["encryptBrandId"])
	assert.Equal(t, "Acme", brand["brandName"])
}

func TestFixSalary(t *testing.T) {
	assert.Equal(t, "20-30K·13薪", FixSalary("-K·薪"))
	assert.Equal(t, "15-25K", FixSalary("15-25K"))
	assert.Equal(t, "", FixSalary(""))
}

func TestJobID(t *testing.T) {
	assert.Equal(t, "abc", JobID([]byte(`{"jobInfo": {"encryptId": "abc"}}`)))
	assert.Equal(t, "", JobID(nil))
}
