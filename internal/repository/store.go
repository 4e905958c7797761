package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db         *gorm.DB
	Users      *UserRepository
	Profiles   *ProfileRepository
	Tasks      *TaskRepository
	History    *HistoryRepository
	Watermarks *WatermarkRepository
	Locks      *JobLockRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      NewUserRepository(db),
		Profiles:   NewProfileRepository(db),
		Tasks:      NewTaskRepository(db),
		History:    NewHistoryRepository(db),
		Watermarks: NewWatermarkRepository(db),
		Locks:      NewJobLockRepository(db),
	}
}

// Atomic runs fn against repositories bound to a single transaction. Any
// error from fn rolls back every write fn made.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
