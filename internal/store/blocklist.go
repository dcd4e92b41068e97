package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-zhipin-automation/internal/models"
)

// MaskCompanyRepository provides access to the masked-company blocklist.
type MaskCompanyRepository struct {
	db *gorm.DB
}

func NewMaskCompanyRepository(db *gorm.DB) *MaskCompanyRepository {
	return &MaskCompanyRepository{db: db}
}

// Upsert inserts or refreshes a blocklist entry by company id.
func (r *MaskCompanyRepository) Upsert(ctx context.Context, entry *models.MaskCompany) error {
	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "com_id"}},
				UpdateAll: true,
			}).
			Create(entry).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save mask company %d: %w", entry.ComID, err)
	}
	return nil
}

// Names returns all non-empty masked company names. The blocklist is
// operator-curated and small; containment matching happens in Go so the
// semantics don't depend on SQL dialect pattern escaping.
func (r *MaskCompanyRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.MaskCompany{}).
		Where("com_name <> ''").
		Pluck("com_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list mask companies: %w", err)
	}
	return names, nil
}

// UserBlackRepository provides access to the blocked-poster list.
type UserBlackRepository struct {
	db *gorm.DB
}

func NewUserBlackRepository(db *gorm.DB) *UserBlackRepository {
	return &UserBlackRepository{db: db}
}

// Upsert inserts or refreshes a blocked poster by user id.
func (r *UserBlackRepository) Upsert(ctx context.Context, entry *models.UserBlack) error {
	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				UpdateAll: true,
			}).
			Create(entry).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save user block %d: %w", entry.UserID, err)
	}
	return nil
}

// ByName returns blocked posters whose name matches exactly.
func (r *UserBlackRepository) ByName(ctx context.Context, name string) ([]models.UserBlack, error) {
	var rows []models.UserBlack
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user blocks: %w", err)
	}
	return rows, nil
}
