package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

const historyBatchSize = 100

// HistoryFilter narrows a history read. Zero fields match everything.
type HistoryFilter struct {
	UserID uint
	Kind   recurrence.Kind
	From   recurrence.Date
	To     recurrence.Date
	Limit  int
}

// HistoryRepository is the append-only archive of task snapshots.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, row *model.TaskHistory) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) AppendBatch(ctx context.Context, rows []model.TaskHistory) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, historyBatchSize).Error; err != nil {
		return fmt.Errorf("append history batch: %w", err)
	}
	return nil
}

// List returns snapshots ordered by boundary date, then insertion order.
func (r *HistoryRepository) List(ctx context.Context, f HistoryFilter) ([]model.TaskHistory, error) {
	q := r.db.WithContext(ctx).Model(&model.TaskHistory{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From.String())
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", f.To.String())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []model.TaskHistory
	if err := q.Order("date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return rows, nil
}
