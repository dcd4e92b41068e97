package store

import (
	"encoding/json"

	"go-zhipin-automation/internal/models"
)

func (s *StoreTestSuite) TestSaveOrInsertIsIdempotent() {
	detail := detailPayload("user-1", "brand-1", "负责服务端开发")

	s.Require().NoError(s.jobs.ApplyDetail(s.ctx, "job-1", json.RawMessage(detail), true, testNow))
	s.Require().NoError(s.jobs.ApplyDetail(s.ctx, "job-1", json.RawMessage(detail), true, testNow))

	var count int64
	s.Require().NoError(s.db.Model(&models.Job{}).Count(&count).Error)
	s.Equal(int64(1), count)

	job, err := s.jobs.GetByID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Require().NotNil(job)
	s.Equal("job-1", job.ID)
	s.JSONEq(detail, string(job.Detail))
	s.Equal("user-1", job.UserID)
	s.Equal("brand-1", job.BrandID)
	s.True(*job.Acceptable)
	s.False(*job.Contacted)
	s.Equal(testNow, job.LastInspectionTime.UTC())
}

func (s *StoreTestSuite) TestApplyDetailKeepsPayloadOnlyWhenValid() {
	s.Require().NoError(s.jobs.ApplyDetail(s.ctx, "job-1", json.RawMessage(`{"jobInfo":{}}`), false, testNow))

	job, err := s.jobs.GetByID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.False(*job.Acceptable)
	s.False(job.HasDetail())
}

func (s *StoreTestSuite) TestGetByIDUnknown() {
	job, err := s.jobs.GetByID(s.ctx, "missing")
	s.NoError(err)
	s.Nil(job)
}

func (s *StoreTestSuite) TestContactableIDs() {
	s.saveJob("a", models.Bool(true), models.Bool(false), "")
	s.saveJob("b", models.Bool(true), models.Bool(true), "")
	s.saveJob("c", models.Bool(false), models.Bool(false), "")
	s.saveJob("d", nil, nil, "")
	s.saveJob("e", models.Bool(true), models.Bool(false), "")

	ids, err := s.jobs.ContactableIDs(s.ctx, 40)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"a", "e"}, ids)

	ids, err = s.jobs.ContactableIDs(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(ids, 1)
}

func (s *StoreTestSuite) TestMarkContacted() {
	s.saveJob("a", models.Bool(true), models.Bool(false), "")

	s.Require().NoError(s.jobs.MarkContacted(s.ctx, "a"))

	job, err := s.jobs.GetByID(s.ctx, "a")
	s.Require().NoError(err)
	s.True(*job.Contacted)
}

func (s *StoreTestSuite) TestResolvedExists() {
	s.saveJob("contacted", models.Bool(true), models.Bool(true), "")
	s.saveJob("rejected", models.Bool(false), models.Bool(false), "")
	s.saveJob("open", models.Bool(true), models.Bool(false), "")

	for id, want := range map[string]bool{
		"contacted": true,
		"rejected":  true,
		"open":      false,
		"unknown":   false,
	} {
		got, err := s.jobs.ResolvedExists(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(want, got, "id %s", id)
	}
}

func (s *StoreTestSuite) TestContactHistoryLookups() {
	job := s.saveJob("past", models.Bool(true), models.Bool(true),
		detailPayload("user-1", "brand-1", "负责服务端开发"))
	s.Equal("user-1", job.UserID)

	got, err := s.jobs.HasContactedUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.True(got)

	got, err = s.jobs.HasContactedUser(s.ctx, "user-2")
	s.Require().NoError(err)
	s.False(got)

	got, err = s.jobs.HasContactedBrand(s.ctx, "brand-1")
	s.Require().NoError(err)
	s.True(got)

	got, err = s.jobs.HasContactedBrand(s.ctx, "brand-2")
	s.Require().NoError(err)
	s.False(got)
}

func (s *StoreTestSuite) TestWritesEvictPredicateCache() {
	cache := s.jobs.Cache()
	cache.SetBool(s.ctx, AcceptableKey("a"), true)
	cache.SetBool(s.ctx, ResolvedKey("a"), true)

	s.saveJob("a", models.Bool(true), models.Bool(false), "")

	_, ok := cache.GetBool(s.ctx, AcceptableKey("a"))
	s.False(ok)
	_, ok = cache.GetBool(s.ctx, ResolvedKey("a"))
	s.False(ok)

	cache.SetBool(s.ctx, ResolvedKey("a"), false)
	s.Require().NoError(s.jobs.MarkContacted(s.ctx, "a"))
	_, ok = cache.GetBool(s.ctx, ResolvedKey("a"))
	s.False(ok)
}

func (s *StoreTestSuite) TestRecordHistoricalContact() {
	// Unknown id gets a stub row.
	s.Require().NoError(s.jobs.RecordHistoricalContact(s.ctx, "new"))
	job, err := s.jobs.GetByID(s.ctx, "new")
	s.Require().NoError(err)
	s.Require().NotNil(job)
	s.Require().NotNil(job.Contacted)
	s.True(*job.Contacted)

	// An existing row keeps its detail and verdict.
	payload := detailPayload("user-1", "brand-1", "负责服务端开发")
	s.saveJob("seen", models.Bool(true), models.Bool(false), payload)
	s.Require().NoError(s.jobs.RecordHistoricalContact(s.ctx, "seen"))
	job, err = s.jobs.GetByID(s.ctx, "seen")
	s.Require().NoError(err)
	s.Require().NotNil(job)
	s.True(*job.Contacted)
	s.JSONEq(payload, string(job.Detail))
	s.Require().NotNil(job.Acceptable)
	s.True(*job.Acceptable)
}
