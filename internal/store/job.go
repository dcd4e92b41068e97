package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-zhipin-automation/internal/models"
)

// JobRepository provides access to job rows. Every write evicts the
// predicate cache entries for the touched id.
type JobRepository struct {
	db    *gorm.DB
	cache Cache
}

func NewJobRepository(db *gorm.DB, cache Cache) *JobRepository {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &JobRepository{db: db, cache: cache}
}

// Cache exposes the predicate cache shared with the acceptability engine.
func (r *JobRepository) Cache() Cache { return r.cache }

// SaveOrInsert upserts a job row by primary key. Safe to call repeatedly
// with the same id: repeated crawls refresh the row without duplicating it.
func (r *JobRepository) SaveOrInsert(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return errors.New("job id is required")
	}
	extractIdentity(job)
	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(job).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	r.evict(ctx, job.ID)
	return nil
}

// ApplyDetail records the outcome of a detail fetch: the payload (only when
// it validated), the acceptable verdict, contacted=false and the inspection
// timestamp. The crawl orchestrator is the sole caller.
func (r *JobRepository) ApplyDetail(ctx context.Context, id string, detail json.RawMessage, acceptable bool, now time.Time) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		job = &models.Job{ID: id}
	}
	job.Acceptable = models.Bool(acceptable)
	if acceptable {
		job.Detail = detail
	}
	job.Contacted = models.Bool(false)
	job.LastInspectionTime = &now
	return r.SaveOrInsert(ctx, job)
}

// MarkContacted flips the contacted flag. The outreach driver is the sole
// caller.
func (r *JobRepository) MarkContacted(ctx context.Context, id string) error {
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ?", id).
			Update("contacted", true).Error
	})
	if err != nil {
		return fmt.Errorf("failed to mark job %s contacted: %w", id, err)
	}
	r.evict(ctx, id)
	return nil
}

// RecordHistoricalContact marks an id contacted, creating a stub row when
// the crawl never saw it. Unlike SaveOrInsert it touches no other column,
// so an existing row keeps its detail and verdict.
func (r *JobRepository) RecordHistoricalContact(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("job id is required")
	}
	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{"contacted": true}),
			}).
			Create(&models.Job{ID: id, Contacted: models.Bool(true)}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record contact for job %s: %w", id, err)
	}
	r.evict(ctx, id)
	return nil
}

// GetByID returns the job row, or nil when the id is unknown.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

// ContactableIDs returns ids of rows with contacted=false and
// acceptable=true, capped at limit.
func (r *JobRepository) ContactableIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("contacted = ? AND acceptable = ?", false, true).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contactable jobs: %w", err)
	}
	return ids, nil
}

// ResolvedExists reports whether a stored row with this id is already
// contacted or already known unacceptable.
func (r *JobRepository) ResolvedExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND (contacted = ? OR acceptable = ?)", id, true, false).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check resolution of %s: %w", id, err)
	}
	return count > 0, nil
}

// HasContactedUser reports whether any contacted row shares this poster
// user id.
func (r *JobRepository) HasContactedUser(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("contacted = ? AND user_id = ? AND user_id <> ''", true, userID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check contact history: %w", err)
	}
	return count > 0, nil
}

// HasContactedBrand reports whether any contacted row shares this employer
// brand id.
func (r *JobRepository) HasContactedBrand(ctx context.Context, brandID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("contacted = ? AND brand_id = ? AND brand_id <> ''", true, brandID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check contact history: %w", err)
	}
	return count > 0, nil
}

func (r *JobRepository) evict(ctx context.Context, id string) {
	r.cache.Evict(ctx, AcceptableKey(id), ResolvedKey(id))
}

// extractIdentity derives the dedup identity columns from the detail
// payload. The original schema kept these as generated columns.
func extractIdentity(job *models.Job) {
	if !job.HasDetail() {
		return
	}
	if userID := gjson.GetBytes(job.Detail, "jobInfo.encryptUserId").String(); userID != "" {
		job.UserID = userID
	}
	if brandID := gjson.GetBytes(job.Detail, "brandComInfo.encryptBrandId").String(); brandID != "" {
		job.BrandID = brandID
	}
}
