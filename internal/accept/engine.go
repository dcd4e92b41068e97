// Package accept decides whether outreach to a job posting is permitted.
// The decision combines blocklist membership and contact-history
// deduplication; it is a side-effect-free read over current store state.
package accept

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"go-zhipin-automation/internal/models"
	"go-zhipin-automation/internal/store"
	"go-zhipin-automation/internal/zhipin"
)

// Engine evaluates the acceptability and resolution predicates, memoized
// through a read-through cache keyed by job id. The store evicts entries
// whenever it writes the underlying row.
type Engine struct {
	jobs    *store.JobRepository
	masks   *store.MaskCompanyRepository
	blocked *store.UserBlackRepository
	cache   store.Cache
}

func NewEngine(jobs *store.JobRepository, masks *store.MaskCompanyRepository, blocked *store.UserBlackRepository, cache store.Cache) *Engine {
	if cache == nil {
		cache = store.NewMemoryCache()
	}
	return &Engine{jobs: jobs, masks: masks, blocked: blocked, cache: cache}
}

// IsAcceptable reports whether the job may be contacted. A job without a
// detail payload is acceptable: with insufficient information the engine
// errs toward contacting. No write happens here; callers persist the
// outcome.
func (e *Engine) IsAcceptable(ctx context.Context, job *models.Job) (bool, error) {
	if job == nil || !job.HasDetail() {
		return true, nil
	}
	if v, ok := e.cache.GetBool(ctx, store.AcceptableKey(job.ID)); ok {
		return v, nil
	}

	ok, err := e.evaluate(ctx, job)
	if err != nil {
		return false, err
	}
	e.cache.SetBool(ctx, store.AcceptableKey(job.ID), ok)
	return ok, nil
}

func (e *Engine) evaluate(ctx context.Context, job *models.Job) (bool, error) {
	detail := unwrapDetail(job.Detail)
	brandName := gjson.GetBytes(detail, "brandComInfo.brandName").String()
	bossName := gjson.GetBytes(detail, "bossInfo.name").String()

	if brandName != "" {
		blocked, err := e.brandBlocked(ctx, brandName)
		if err != nil {
			return false, err
		}
		if blocked {
			return false, nil
		}
	}

	if brandName != "" && bossName != "" {
		blocked, err := e.posterBlocked(ctx, bossName, brandName)
		if err != nil {
			return false, err
		}
		if blocked {
			return false, nil
		}
	}

	return e.noPriorContact(ctx, job, detail)
}

// brandBlocked matches masked company names by containment inside the
// job's brand name, case-sensitively.
func (e *Engine) brandBlocked(ctx context.Context, brandName string) (bool, error) {
	names, err := e.masks.Names(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if strings.Contains(brandName, name) {
			return true, nil
		}
	}
	return false, nil
}

// posterBlocked matches blocked posters by exact boss name plus brand-name
// containment in the entry's info field.
func (e *Engine) posterBlocked(ctx context.Context, bossName, brandName string) (bool, error) {
	rows, err := e.blocked.ByName(ctx, bossName)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.Info != "" && strings.Contains(row.Info, brandName) {
			return true, nil
		}
	}
	return false, nil
}

// noPriorContact rejects when the same poster was contacted before, or the
// same brand was — unless the posting carries the large-employer scale
// marker, which exempts the brand from single-contact throttling.
func (e *Engine) noPriorContact(ctx context.Context, job *models.Job, detail []byte) (bool, error) {
	userID := job.UserID
	if userID == "" {
		userID = gjson.GetBytes(detail, "jobInfo.encryptUserId").String()
	}
	if userID != "" {
		hit, err := e.jobs.HasContactedUser(ctx, userID)
		if err != nil {
			return false, err
		}
		if hit {
			return false, nil
		}
	}

	brandID := job.BrandID
	if brandID == "" {
		brandID = gjson.GetBytes(detail, "brandComInfo.encryptBrandId").String()
	}
	if brandID != "" && !strings.Contains(string(detail), zhipin.LargeCompanyMarker) {
		hit, err := e.jobs.HasContactedBrand(ctx, brandID)
		if err != nil {
			return false, err
		}
		if hit {
			return false, nil
		}
	}

	return true, nil
}

// IsResolved reports whether no further detail fetch is needed for this
// id: a stored row exists that is already contacted or already known
// unacceptable.
func (e *Engine) IsResolved(ctx context.Context, jobID string) (bool, error) {
	if v, ok := e.cache.GetBool(ctx, store.ResolvedKey(jobID)); ok {
		return v, nil
	}
	resolved, err := e.jobs.ResolvedExists(ctx, jobID)
	if err != nil {
		return false, err
	}
	e.cache.SetBool(ctx, store.ResolvedKey(jobID), resolved)
	return resolved, nil
}

// unwrapDetail peels string-wrapped JSON; scraped payloads are sometimes
// double-encoded upstream.
func unwrapDetail(raw json.RawMessage) []byte {
	for len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			break
		}
		raw = []byte(s)
	}
	return raw
}
