// Package models defines the persistent entities: one row per distinct job
// posting plus the two operator-curated blocklists.
package models

import (
	"encoding/json"
	"time"
)

// Job is one row per distinct posting, keyed by the site-issued encrypted
// job id. Acceptable stays NULL until a detail fetch passes validation;
// Contacted stays NULL until outreach has been attempted. UserID and
// BrandID are extracted from Detail on write and exist purely for
// contact-history deduplication.
type Job struct {
	ID                 string          `json:"id" gorm:"primaryKey"`
	Acceptable         *bool           `json:"acceptable"`
	Contacted          *bool           `json:"contacted"`
	LastInspectionTime *time.Time      `json:"last_inspection_time"`
	Detail             json.RawMessage `json:"detail,omitempty" gorm:"type:jsonb"`
	UserID             string          `json:"user_id,omitempty" gorm:"index"`
	BrandID            string          `json:"brand_id,omitempty" gorm:"index"`
}

// TableName keeps the table name the operator tooling expects.
func (Job) TableName() string { return "job" }

// HasDetail reports whether a validated detail payload is attached.
func (j *Job) HasDetail() bool {
	return len(j.Detail) > 0 && string(j.Detail) != "null"
}

// MaskCompany is a blocklist entry keyed by company id. ComName is a masked
// company-name substring matched case-sensitively against a job's brand
// name.
type MaskCompany struct {
	ComID        int64  `json:"com_id" gorm:"primaryKey;column:com_id"`
	EncryptID    string `json:"encrypt_id"`
	ComName      string `json:"com_name"`
	LinkComNum   int16  `json:"link_com_num" gorm:"default:0"`
	EncryptComID string `json:"encrypt_com_id"`
}

func (MaskCompany) TableName() string { return "mask_company" }

// UserBlack is a blocklist entry keyed by poster user id. A job matches
// when its boss name equals Name exactly and its brand name appears inside
// Info.
type UserBlack struct {
	UserID     int64  `json:"user_id" gorm:"primaryKey;column:user_id"`
	Name       string `json:"name" gorm:"not null"`
	Avatar     string `json:"avatar"`
	SecurityID string `json:"security_id" gorm:"not null"`
	Info       string `json:"info"`
	UserSource int16  `json:"user_source" gorm:"default:0"`
}

func (UserBlack) TableName() string { return "user_black" }

// Bool is a *bool literal helper for the nullable flags.
func Bool(v bool) *bool { return &v }
