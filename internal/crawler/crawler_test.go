package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-zhipin-automation/internal/citys"
	"go-zhipin-automation/internal/config"
	"go-zhipin-automation/internal/docstore"
	"go-zhipin-automation/internal/sanitize"
	"go-zhipin-automation/internal/store"
)

type fakeLists struct {
	urls      []string
	summaries []map[string]any
	err       error
}

func (f *fakeLists) FetchList(url string) ([]map[string]any, error) {
	f.urls = append(f.urls, url)
	return f.summaries, f.err
}

type fakeDetails struct {
	calls  int
	result map[string]any
	err    error
}

func (f *fakeDetails) FetchDetail(detail map[string]any) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return detail, nil
}

type fakeProbe struct {
	calls  int
	result map[string]any
	ok     bool
}

func (f *fakeProbe) Probe(_ context.Context, _ string) (map[string]any, bool) {
	f.calls++
	return f.result, f.ok
}

type fakeDocs struct {
	docs map[string]any
}

func (f *fakeDocs) Upsert(_ context.Context, collection, id string, document any) error {
	if f.docs == nil {
		f.docs = map[string]any{}
	}
	f.docs[collection+"/"+id] = document
	return nil
}

type fakeResolver struct {
	resolved map[string]bool
}

func (f *fakeResolver) IsResolved(_ context.Context, id string) (bool, error) {
	return f.resolved[id], nil
}

type crawlerEnv struct {
	cfg     *config.Config
	lists   *fakeLists
	details *fakeDetails
	probe   *fakeProbe
	docs    *fakeDocs
	jobs    *store.JobRepository
}

func newEnv(t *testing.T) *crawlerEnv {
	t.Helper()
	dir := t.TempDir()
	cityFile := filepath.Join(dir, "city.json")
	require.NoError(t, os.WriteFile(cityFile, []byte(`{"上海": 101020100, "杭州": 101210100}`), 0o644))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	return &crawlerEnv{
		cfg: &config.Config{
			Cities:           []string{"上海"},
			Queries:          []string{"golang"},
			Salaries:         []string{"405,406"},
			SeedBatchSize:    9,
			MaxCrawlRequests: 100,
			CachePath:        dir,
			CityFilePath:     cityFile,
		},
		lists:   &fakeLists{},
		details: &fakeDetails{},
		probe:   &fakeProbe{},
		docs:    &fakeDocs{},
		jobs:    store.NewJobRepository(db, store.NewMemoryCache()),
	}
}

func (e *crawlerEnv) crawler() *Crawler {
	return New(e.cfg, Deps{
		Lists:     e.lists,
		Details:   e.details,
		Probe:     e.probe,
		Docs:      e.docs,
		Jobs:      e.jobs,
		Resolver:  &fakeResolver{resolved: map[string]bool{"resolved-1": true}},
		Cities:    citys.New(e.cfg.CityFilePath),
		Sanitizer: sanitize.New(),
	})
}

func validSummary(id string) map[string]any {
	return map[string]any{
		"encryptJobId": id,
		"securityId":   "sec-" + id,
		"jobName":      "Go后端工程师",
	}
}

func validDetail(id, description string) map[string]any {
	return map[string]any{
		"jobInfo": map[string]any{
			"encryptId":       id,
			"jobName":         "Go后端工程师",
			"postDescription": description,
			"encryptUserId":   "u-" + id,
		},
		"bossInfo":     map[string]any{"name": "李四"},
		"brandComInfo": map[string]any{"brandName": "极客公司", "encryptBrandId": "b1"},
	}
}

func TestSeedEmitsBatchesAndResumesCursor(t *testing.T) {
	env := newEnv(t)
	env.cfg.Cities = []string{"上海", "杭州"}
	env.cfg.Queries = []string{"golang", "python"}
	env.cfg.Salaries = []string{"405", "406"}
	env.cfg.SeedBatchSize = 3

	require.NoError(t, env.crawler().Run(context.Background()))
	assert.Len(t, env.lists.urls, 3)
	assert.Contains(t, env.lists.urls[0], "city=101020100")
	assert.Contains(t, env.lists.urls[0], "query=golang")

	// A fresh crawler resumes from the persisted cursor.
	require.NoError(t, env.crawler().Run(context.Background()))
	assert.Len(t, env.lists.urls, 6)
	assert.Equal(t, 6, loadState(env.cfg.CachePath).Start)
}

func TestListPersistsSummariesAndQueuesDetails(t *testing.T) {
	env := newEnv(t)
	env.lists.summaries = []map[string]any{
		validSummary("j1"),
		{"encryptJobId": "j2", "jobName": "缺字段"}, // no securityId, fails the summary check
		validSummary("resolved-1"),
	}
	env.probe.result = validDetail("j1", "负责后端服务开发")
	env.probe.ok = true

	require.NoError(t, env.crawler().Run(context.Background()))

	assert.Contains(t, env.docs.docs, docstore.CollectionJob+"/j1")
	assert.Contains(t, env.docs.docs, docstore.CollectionJob+"/j2")
	assert.Contains(t, env.docs.docs, docstore.CollectionJob+"/resolved-1")
	assert.Contains(t, env.docs.docs, docstore.CollectionJobDetail+"/j1")
	assert.NotContains(t, env.docs.docs, docstore.CollectionJobDetail+"/j2")
	assert.NotContains(t, env.docs.docs, docstore.CollectionJobDetail+"/resolved-1")

	// The probe satisfied the detail fetch, the browser was never used.
	assert.Equal(t, 0, env.details.calls)

	job, err := env.jobs.GetByID(context.Background(), "j1")
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NotNil(t, job.Acceptable)
	assert.True(t, *job.Acceptable)
	require.NotNil(t, job.Contacted)
	assert.False(t, *job.Contacted)
	assert.NotNil(t, job.LastInspectionTime)
	assert.Equal(t, "u-j1", job.UserID)
}

func TestDetailFallsBackToBrowserWhenProbeFails(t *testing.T) {
	env := newEnv(t)
	env.lists.summaries = []map[string]any{validSummary("j1")}
	env.probe.ok = false
	env.details.result = validDetail("j1", "负责后端服务开发")

	require.NoError(t, env.crawler().Run(context.Background()))

	assert.Equal(t, 1, env.probe.calls)
	assert.Equal(t, 1, env.details.calls)
	assert.Contains(t, env.docs.docs, docstore.CollectionJobDetail+"/j1")
}

func TestDetailInvalidAtAllLevelsStoresVerdictOnly(t *testing.T) {
	env := newEnv(t)
	env.lists.summaries = []map[string]any{validSummary("j1")}
	env.probe.ok = false
	env.details.result = validDetail("j1", "") // empty description fails validation

	require.NoError(t, env.crawler().Run(context.Background()))

	job, err := env.jobs.GetByID(context.Background(), "j1")
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NotNil(t, job.Acceptable)
	assert.False(t, *job.Acceptable)
	assert.Empty(t, job.Detail)
}

func TestFailedListRequestIsRetriedOnceThenDropped(t *testing.T) {
	env := newEnv(t)
	env.lists.err = errors.New("navigation failed")

	require.NoError(t, env.crawler().Run(context.Background()))
	assert.Len(t, env.lists.urls, 2)
}

func TestWatermarkStrippedBeforePersist(t *testing.T) {
	env := newEnv(t)
	env.lists.summaries = []map[string]any{validSummary("j1")}
	env.probe.result = validDetail("j1", "简历来自BOSS直聘投递")
	env.probe.ok = true

	require.NoError(t, env.crawler().Run(context.Background()))

	job, err := env.jobs.GetByID(context.Background(), "j1")
	require.NoError(t, err)
	require.NotNil(t, job)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(job.Detail, &stored))
	jobInfo := stored["jobInfo"].(map[string]any)
	assert.Equal(t, "简历投递", jobInfo["postDescription"])
}

func TestLoggedInPersonaHonorsRequestCap(t *testing.T) {
	env := newEnv(t)
	env.cfg.LoggedInBrowser = true
	env.cfg.MaxCrawlRequests = 2
	env.cfg.Queries = []string{"golang", "python", "rust", "java"}
	env.cfg.SeedBatchSize = 4

	require.NoError(t, env.crawler().Run(context.Background()))
	assert.Len(t, env.lists.urls, 1)
}
