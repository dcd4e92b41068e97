package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-zhipin-automation/internal/accept"
	"go-zhipin-automation/internal/config"
	"go-zhipin-automation/internal/models"
	"go-zhipin-automation/internal/store"
	"go-zhipin-automation/internal/zhipin"
)

type fakeContacter struct {
	calls         []string
	results       map[string]zhipin.GreetResult
	errs          map[string]error
	invokeCompose bool
	greetings     []string
}

func (f *fakeContacter) Greet(jobID string, compose func(name, description string) string) (zhipin.GreetResult, error) {
	f.calls = append(f.calls, jobID)
	if err := f.errs[jobID]; err != nil {
		return 0, err
	}
	if f.invokeCompose {
		f.greetings = append(f.greetings, compose("Go后端工程师", "负责服务端开发"))
	}
	return f.results[jobID], nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type greeterEnv struct {
	ctx       context.Context
	cfg       *config.Config
	jobs      *store.JobRepository
	masks     *store.MaskCompanyRepository
	engine    *accept.Engine
	contacter *fakeContacter
	generator *fakeGenerator
}

func newGreeterEnv(t *testing.T) *greeterEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	cache := store.NewMemoryCache()
	jobs := store.NewJobRepository(db, cache)
	masks := store.NewMaskCompanyRepository(db)
	blocked := store.NewUserBlackRepository(db)

	return &greeterEnv{
		ctx:   context.Background(),
		cfg:   &config.Config{ContactLimit: 40, Greeting: "您好，看到贵司的职位很感兴趣"},
		jobs:  jobs,
		masks: masks,
		engine: accept.NewEngine(jobs, masks, blocked, cache),
		contacter: &fakeContacter{
			results: map[string]zhipin.GreetResult{},
			errs:    map[string]error{},
		},
		generator: &fakeGenerator{},
	}
}

func (e *greeterEnv) greeter() *Greeter {
	return NewGreeter(e.cfg, e.jobs, e.engine, e.contacter, e.generator)
}

func (e *greeterEnv) addContactable(t *testing.T, id, brand string) {
	t.Helper()
	detail := map[string]any{
		"jobInfo": map[string]any{
			"encryptId":       id,
			"jobName":         "Go后端工程师",
			"postDescription": "负责服务端开发",
			"encryptUserId":   "u-" + id,
		},
		"bossInfo":     map[string]any{"name": "王五"},
		"brandComInfo": map[string]any{"brandName": brand, "encryptBrandId": "b-" + id},
	}
	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	require.NoError(t, e.jobs.SaveOrInsert(e.ctx, &models.Job{
		ID:         id,
		Acceptable: models.Bool(true),
		Contacted:  models.Bool(false),
		Detail:     raw,
	}))
}

func (e *greeterEnv) contacted(t *testing.T, id string) bool {
	t.Helper()
	job, err := e.jobs.GetByID(e.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job.Contacted != nil && *job.Contacted
}

func TestSuppressesJobsThatTurnedUnacceptable(t *testing.T) {
	env := newGreeterEnv(t)
	env.addContactable(t, "j1", "黑名单科技有限公司")
	require.NoError(t, env.masks.Upsert(env.ctx, &models.MaskCompany{ComID: 1, ComName: "黑名单科技"}))

	stats, err := env.greeter().Run(env.ctx)
	require.NoError(t, err)

	assert.Empty(t, env.contacter.calls)
	assert.True(t, env.contacted(t, "j1"))
	assert.Equal(t, 1, stats.Suppressed)
	assert.Equal(t, 0, stats.Contacted)
}

func TestContactsAcceptableJobs(t *testing.T) {
	env := newGreeterEnv(t)
	env.addContactable(t, "j1", "极客公司")
	env.contacter.results["j1"] = zhipin.GreetContacted

	stats, err := env.greeter().Run(env.ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"j1"}, env.contacter.calls)
	assert.True(t, env.contacted(t, "j1"))
	assert.Equal(t, 1, stats.Contacted)
}

func TestResolvedPageStillMarksContacted(t *testing.T) {
	env := newGreeterEnv(t)
	env.addContactable(t, "j1", "极客公司")
	env.contacter.results["j1"] = zhipin.GreetResolved

	stats, err := env.greeter().Run(env.ctx)
	require.NoError(t, err)

	assert.True(t, env.contacted(t, "j1"))
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, stats.Contacted)
}

func TestRateLimitHaltsWholeRun(t *testing.T) {
	env := newGreeterEnv(t)
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("j%d", i)
		env.addContactable(t, id, "极客公司"+id)
		env.contacter.errs[id] = fmt.Errorf("%w: job %s", ErrRateLimited, id)
	}

	_, err := env.greeter().Run(env.ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Len(t, env.contacter.calls, 1)
	for i := 1; i <= 3; i++ {
		assert.False(t, env.contacted(t, fmt.Sprintf("j%d", i)))
	}
}

func TestScrapeErrorLeavesJobForNextRun(t *testing.T) {
	env := newGreeterEnv(t)
	env.addContactable(t, "j1", "极客公司")
	env.contacter.errs["j1"] = errors.New("contact control missing")

	stats, err := env.greeter().Run(env.ctx)
	require.NoError(t, err)

	assert.False(t, env.contacted(t, "j1"))
	assert.Equal(t, 1, stats.Considered)
	assert.Equal(t, 0, stats.Contacted)
}

func TestComposeUsesGeneratorWithStaticFallback(t *testing.T) {
	env := newGreeterEnv(t)
	env.cfg.GenerateGreeting = true
	env.contacter.invokeCompose = true
	env.addContactable(t, "j1", "极客公司")
	env.contacter.results["j1"] = zhipin.GreetContacted
	env.generator.text = "您好！我有五年Go开发经验，希望聊聊这个职位。"

	_, err := env.greeter().Run(env.ctx)
	require.NoError(t, err)
	require.Len(t, env.contacter.greetings, 1)
	assert.Equal(t, env.generator.text, env.contacter.greetings[0])

	// Generation failure falls back to the configured greeting.
	env2 := newGreeterEnv(t)
	env2.cfg.GenerateGreeting = true
	env2.contacter.invokeCompose = true
	env2.addContactable(t, "j1", "极客公司")
	env2.contacter.results["j1"] = zhipin.GreetContacted
	env2.generator.err = errors.New("quota exceeded")

	_, err = env2.greeter().Run(env2.ctx)
	require.NoError(t, err)
	require.Len(t, env2.contacter.greetings, 1)
	assert.Equal(t, env2.cfg.Greeting, env2.contacter.greetings[0])
}
