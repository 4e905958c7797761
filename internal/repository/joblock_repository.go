package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmaster/internal/model"
)

// JobLockRepository provides leases via the job_locks table. A lock row is
// taken over only once it has expired, so a crashed holder cannot block the
// job forever.
type JobLockRepository struct {
	db *gorm.DB
}

func NewJobLockRepository(db *gorm.DB) *JobLockRepository {
	return &JobLockRepository{db: db}
}

// Acquire inserts or takes over the lock row. It reports false when another
// owner holds an unexpired lock.
func (r *JobLockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	lock := model.JobLock{ID: lockID, Owner: owner, LockedAt: now, ExpiresAt: now.Add(ttl)}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "locked_at", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "job_locks.expires_at < ?", Vars: []interface{}{now}},
		}},
	}).Create(&lock)
	if res.Error != nil {
		return false, fmt.Errorf("acquire lock %s: %w", lockID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Release drops the lock if owner still holds it.
func (r *JobLockRepository) Release(ctx context.Context, lockID, owner string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND owner = ?", lockID, owner).Delete(&model.JobLock{}).Error; err != nil {
		return fmt.Errorf("release lock %s: %w", lockID, err)
	}
	return nil
}
