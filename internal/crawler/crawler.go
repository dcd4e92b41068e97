// Package crawler runs the discovery pipeline: a dynamic work queue of
// seed, list and detail requests, where handlers enqueue further work as
// they find it. One bad request never aborts the run.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/citys"
	"go-zhipin-automation/internal/config"
	"go-zhipin-automation/internal/docstore"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/sanitize"
	"go-zhipin-automation/internal/schema"
	"go-zhipin-automation/internal/store"
	"go-zhipin-automation/internal/zhipin"
)

const maxRequestRetries = 1

type requestKind int

const (
	kindSeed requestKind = iota
	kindList
	kindDetail
)

type request struct {
	kind    requestKind
	url     string
	summary map[string]any
	retries int
}

func (r request) describe() string {
	switch r.kind {
	case kindSeed:
		return "seed"
	case kindList:
		return "list " + r.url
	default:
		id, _ := r.summary["encryptJobId"].(string)
		return "detail " + id
	}
}

// ListFetcher renders a search-results page into raw job summaries.
type ListFetcher interface {
	FetchList(url string) ([]map[string]any, error)
}

// DetailFetcher fills a detail skeleton from the posting page.
type DetailFetcher interface {
	FetchDetail(detail map[string]any) (map[string]any, error)
}

// DocumentStore receives every raw payload the crawl produces.
type DocumentStore interface {
	Upsert(ctx context.Context, collection, id string, document any) error
}

// Resolver answers whether a job id needs no further detail work.
type Resolver interface {
	IsResolved(ctx context.Context, jobID string) (bool, error)
}

// Deps are the crawler's collaborators.
type Deps struct {
	Lists     ListFetcher
	Details   DetailFetcher
	Probe     Probe
	Docs      DocumentStore
	Jobs      *store.JobRepository
	Resolver  Resolver
	Cities    *citys.Table
	Sanitizer *sanitize.Sanitizer
}

type Crawler struct {
	cfg       *config.Config
	deps      Deps
	state     cursorState
	queue     []request
	processed int
}

func New(cfg *config.Config, deps Deps) *Crawler {
	return &Crawler{
		cfg:   cfg,
		deps:  deps,
		state: loadState(cfg.CachePath),
	}
}

// Run drains the work queue starting from a single seed request. Failed
// requests are retried once, then logged and dropped. A verification
// wall is the one fatal condition: nothing useful can follow it.
func (c *Crawler) Run(ctx context.Context) error {
	c.queue = append(c.queue, request{kind: kindSeed})
	for len(c.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.cfg.LoggedInBrowser && c.processed >= c.cfg.MaxCrawlRequests {
			logger.Infof("Request cap of %d reached, stopping crawl", c.cfg.MaxCrawlRequests)
			return nil
		}
		req := c.queue[0]
		c.queue = c.queue[1:]
		c.processed++

		if err := c.handle(ctx, req); err != nil {
			if errors.Is(err, browser.ErrVerificationWall) {
				return err
			}
			if req.retries < maxRequestRetries {
				req.retries++
				c.queue = append(c.queue, req)
				continue
			}
			logger.WithError(err).Errorf("Request dropped: %s", req.describe())
		}
	}
	return nil
}

func (c *Crawler) handle(ctx context.Context, req request) error {
	switch req.kind {
	case kindSeed:
		return c.handleSeed(ctx)
	case kindList:
		return c.handleList(ctx, req.url)
	default:
		return c.handleDetail(ctx, req.summary)
	}
}

type sweepPoint struct {
	city   string
	query  string
	salary string
}

func (c *Crawler) sweep() []sweepPoint {
	var points []sweepPoint
	salaries := c.cfg.Salaries
	if len(salaries) == 0 {
		salaries = []string{""}
	}
	for _, city := range c.cfg.Cities {
		for _, query := range c.cfg.Queries {
			for _, salary := range salaries {
				points = append(points, sweepPoint{city: city, query: query, salary: salary})
			}
		}
	}
	return points
}

// handleSeed emits one batch of list requests from the parameter sweep
// and advances the persisted cursor, wrapping around at the end.
func (c *Crawler) handleSeed(ctx context.Context) error {
	points := c.sweep()
	if len(points) == 0 {
		return errors.New("no search parameters configured")
	}
	if !c.state.Seeded {
		c.state.Seeded = true
		if c.cfg.RandomizeSeedStart {
			c.state.Start = rand.Intn(len(points))
		}
	}
	if c.state.Start >= len(points) {
		c.state.Start = 0
	}
	end := c.state.Start + c.cfg.SeedBatchSize
	if end > len(points) {
		end = len(points)
	}
	for _, p := range points[c.state.Start:end] {
		code, err := c.deps.Cities.Code(p.city)
		if err != nil {
			logger.WithError(err).Warnf("Skipping sweep point for city %q", p.city)
			continue
		}
		url := zhipin.SearchURL(zhipin.SearchParams{
			CityCode:   code,
			Query:      p.query,
			Salary:     p.salary,
			Experience: c.cfg.Experience,
			Degree:     c.cfg.Degree,
			Scale:      c.cfg.Scale,
		})
		c.queue = append(c.queue, request{kind: kindList, url: url})
	}
	c.state.Start = end
	saveState(c.cfg.CachePath, c.state)
	return nil
}

// handleList persists every summary and queues a detail fetch for the
// ones that qualify: structurally complete and not already resolved.
func (c *Crawler) handleList(ctx context.Context, url string) error {
	logger.WithField("url", url).Infof("Processing listing page")
	summaries, err := c.deps.Lists.FetchList(url)
	if err != nil {
		return fmt.Errorf("list fetch failed: %w", err)
	}
	for _, summary := range summaries {
		id, _ := summary["encryptJobId"].(string)
		if id == "" {
			continue
		}
		if err := c.deps.Docs.Upsert(ctx, docstore.CollectionJob, id, summary); err != nil {
			logger.WithError(err).Warnf("Summary upsert failed for job %s", id)
		}
		if !schema.ValidSummary(summary) {
			continue
		}
		resolved, err := c.deps.Resolver.IsResolved(ctx, id)
		if err != nil {
			logger.WithError(err).Warnf("Resolution check failed for job %s", id)
			continue
		}
		if !resolved {
			c.queue = append(c.queue, request{kind: kindDetail, summary: summary})
		}
	}
	return nil
}

// handleDetail obtains the full payload, anonymously when possible, and
// persists it. The probe result is used only when it validates; anything
// less falls back to the browser scrape seeded from the summary.
func (c *Crawler) handleDetail(ctx context.Context, summary map[string]any) error {
	securityID, _ := summary["securityId"].(string)

	detail, ok := c.deps.Probe.Probe(ctx, securityID)
	if !ok {
		skeleton := schema.SummaryToDetail(summary)
		var err error
		detail, err = c.deps.Details.FetchDetail(skeleton)
		if err != nil {
			return fmt.Errorf("detail fetch failed: %w", err)
		}
	}
	if len(detail) == 0 {
		return fmt.Errorf("%w: empty detail payload", schema.ErrInvalid)
	}

	c.deps.Sanitizer.Clean(detail)

	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("detail payload not serializable: %w", err)
	}
	jobID := schema.JobID(raw)
	if jobID == "" {
		return fmt.Errorf("%w: detail payload has no job id", schema.ErrInvalid)
	}
	if err := c.deps.Docs.Upsert(ctx, docstore.CollectionJobDetail, jobID, detail); err != nil {
		logger.WithError(err).Warnf("Detail upsert failed for job %s", jobID)
	}

	acceptable := schema.ValidDetailRaw(raw)
	if err := c.deps.Jobs.ApplyDetail(ctx, jobID, raw, acceptable, time.Now()); err != nil {
		return fmt.Errorf("persisting detail for job %s: %w", jobID, err)
	}
	logger.WithField("job", jobID).Infof("Detail stored, acceptable=%t", acceptable)
	return nil
}
