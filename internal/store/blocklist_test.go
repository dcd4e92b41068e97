package store

import "go-zhipin-automation/internal/models"

func (s *StoreTestSuite) TestMaskCompanyUpsertAndNames() {
	entry := &models.MaskCompany{ComID: 1, ComName: "Acme", EncryptID: "e1"}
	s.Require().NoError(s.masks.Upsert(s.ctx, entry))

	// Refresh under the same key, no duplicate row.
	entry.ComName = "Acme Holdings"
	s.Require().NoError(s.masks.Upsert(s.ctx, entry))
	s.Require().NoError(s.masks.Upsert(s.ctx, &models.MaskCompany{ComID: 2, ComName: ""}))

	names, err := s.masks.Names(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Acme Holdings"}, names)
}

func (s *StoreTestSuite) TestUserBlackByName() {
	s.Require().NoError(s.blocked.Upsert(s.ctx, &models.UserBlack{
		UserID: 1, Name: "张三", SecurityID: "s1", Info: "Acme 招聘专员",
	}))
	s.Require().NoError(s.blocked.Upsert(s.ctx, &models.UserBlack{
		UserID: 2, Name: "李四", SecurityID: "s2",
	}))

	rows, err := s.blocked.ByName(s.ctx, "张三")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(int64(1), rows[0].UserID)

	rows, err = s.blocked.ByName(s.ctx, "王五")
	s.Require().NoError(err)
	s.Empty(rows)
}
