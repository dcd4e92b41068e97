// Package store is the data-access layer over the relational record store:
// one repository per entity, context-aware, with small fixed-backoff retry
// on writes and read-through cache eviction on every row write.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-zhipin-automation/internal/models"
)

const (
	writeAttempts = 2
	writeBackoff  = 2 * time.Second
)

// Connect opens the relational store and verifies connectivity.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unable to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(12)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// AutoMigrate creates or updates the schema for all entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Job{}, &models.MaskCompany{}, &models.UserBlack{})
}

// withRetry runs a store write, retrying transient failures a small fixed
// number of times with fixed backoff.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < writeAttempts-1 {
			time.Sleep(writeBackoff)
		}
	}
	return err
}
