package model

import (
	"time"

	"taskmaster/internal/recurrence"
)

// Watermark is the last boundary fully processed for one user and kind.
type Watermark struct {
	ID     uint            `gorm:"primaryKey"`
	UserID uint            `gorm:"uniqueIndex:idx_watermark_user_kind"`
	Kind   recurrence.Kind `gorm:"size:10;uniqueIndex:idx_watermark_user_kind"`
	// Boundary is a local calendar date, YYYY-MM-DD. The fixed-width form
	// compares correctly as a string.
	Boundary  string `gorm:"size:10"`
	UpdatedAt time.Time
}

// JobLock is a named, expiring lease row.
type JobLock struct {
	ID        string `gorm:"primaryKey;size:128"`
	Owner     string `gorm:"size:64"`
	LockedAt  time.Time
	ExpiresAt time.Time `gorm:"index"`
}
