// Package outreach contacts the posters of jobs the store considers
// contactable. Every id is re-checked against the acceptability engine
// right before contact: blocklists and contact history may have changed
// since the crawl queued it.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-zhipin-automation/internal/ai"
	"go-zhipin-automation/internal/config"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/models"
	"go-zhipin-automation/internal/store"
	"go-zhipin-automation/internal/zhipin"
)

// ErrRateLimited is fatal to the whole outreach run.
var ErrRateLimited = zhipin.ErrRateLimited

// Contacter runs the site-side contact flow for one job.
type Contacter interface {
	Greet(jobID string, compose func(name, description string) string) (zhipin.GreetResult, error)
}

// Acceptability is the late re-check gate.
type Acceptability interface {
	IsAcceptable(ctx context.Context, job *models.Job) (bool, error)
}

// Stats summarizes one outreach run for reporting.
type Stats struct {
	Considered int
	Suppressed int
	Resolved   int
	Contacted  int
}

func (s Stats) String() string {
	return fmt.Sprintf("considered=%d suppressed=%d resolved=%d contacted=%d",
		s.Considered, s.Suppressed, s.Resolved, s.Contacted)
}

type Greeter struct {
	cfg       *config.Config
	jobs      *store.JobRepository
	engine    Acceptability
	contacter Contacter
	generator ai.Generator
}

// NewGreeter wires the outreach driver. generator may be nil; the static
// configured greeting is used then.
func NewGreeter(cfg *config.Config, jobs *store.JobRepository, engine Acceptability, contacter Contacter, generator ai.Generator) *Greeter {
	return &Greeter{cfg: cfg, jobs: jobs, engine: engine, contacter: contacter, generator: generator}
}

// Run contacts each contactable job in turn. Per-job failures are logged
// and skipped; a rate-limit signal stops the run immediately.
func (g *Greeter) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	ids, err := g.jobs.ContactableIDs(ctx, g.cfg.ContactLimit)
	if err != nil {
		return stats, err
	}
	logger.Infof("Outreach run over %d contactable jobs", len(ids))
	for _, id := range ids {
		stats.Considered++
		if err := g.greetOne(ctx, id, &stats); err != nil {
			if errors.Is(err, ErrRateLimited) {
				return stats, err
			}
			logger.WithError(err).Errorf("Outreach failed for job %s", id)
		}
	}
	return stats, nil
}

func (g *Greeter) greetOne(ctx context.Context, id string, stats *Stats) (err error) {
	job, err := g.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		job = &models.Job{ID: id}
	}

	ok, err := g.engine.IsAcceptable(ctx, job)
	if err != nil {
		return err
	}
	if !ok {
		stats.Suppressed++
		logger.WithField("job", id).Infof("No longer acceptable, suppressing contact")
		return g.jobs.MarkContacted(ctx, id)
	}

	mark := false
	defer func() {
		if !mark {
			return
		}
		if werr := g.jobs.MarkContacted(ctx, id); werr != nil {
			err = errors.Join(err, werr)
		}
	}()

	result, gerr := g.contacter.Greet(id, g.compose)
	if gerr != nil {
		return gerr
	}
	mark = true
	if result == zhipin.GreetResolved {
		stats.Resolved++
	} else {
		stats.Contacted++
	}
	return nil
}

// compose picks the message body for an open chat composer. Generation
// failures fall back to the static greeting and are never fatal.
func (g *Greeter) compose(name, description string) string {
	if !g.cfg.GenerateGreeting || g.generator == nil {
		return g.cfg.Greeting
	}
	prompt := ai.GreetingPrompt(g.cfg.GreetingPrompt, name, description, g.cfg.Bio)
	text, err := g.generator.Generate(context.Background(), prompt)
	if err != nil {
		logger.WithError(err).Warnf("Greeting generation failed, using static greeting")
		return g.cfg.Greeting
	}
	if strings.TrimSpace(text) == "" {
		return g.cfg.Greeting
	}
	return text
}
