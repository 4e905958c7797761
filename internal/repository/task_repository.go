package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

// Listing order per kind: unfinished first, then by schedule.
const (
	orderDaily   = "completed ASC, time_of_day ASC, id ASC"
	orderWeekly  = "completed ASC, CASE day_of_week WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6 WHEN 'Sunday' THEN 7 ELSE 8 END ASC, time_of_day ASC, id ASC"
	orderMonthly = "completed ASC, day_of_month ASC, time_of_day ASC, id ASC"
)

// Progress counts tasks of one kind.
type Progress struct {
	Completed int
	Total     int
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Update writes the content and schedule columns. The completion flag is left
// alone; it changes only through UpdateCompletion, ToggleCompletion and
// ResetCompleted.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", task.UserID, task.ID).
		Select("title", "description", "kind", "time_of_day", "day_of_week", "day_of_month").
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task for the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByKind returns the user's tasks of one kind in display order.
func (r *TaskRepository) ListByKind(ctx context.Context, userID uint, kind recurrence.Kind) ([]model.Task, error) {
	order := orderDaily
	switch kind {
	case recurrence.KindWeekly:
		order = orderWeekly
	case recurrence.KindMonthly:
		order = orderMonthly
	}
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).Order(order).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListActive returns every task of one kind owned by the user, oldest first.
func (r *TaskRepository) ListActive(ctx context.Context, userID uint, kind recurrence.Kind) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) UpdateCompletion(ctx context.Context, taskID uint, completed bool) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).Update("completed", completed)
	if res.Error != nil {
		return fmt.Errorf("update completion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleCompletion flips the flag in a single statement and returns the task
// as stored afterwards.
func (r *TaskRepository) ToggleCompletion(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).Where("user_id = ? AND id = ?", userID, taskID).
			Update("completed", gorm.Expr("NOT completed"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", taskID).First(&task).Error
	})
	if err != nil {
		return nil, fmt.Errorf("toggle completion: %w", err)
	}
	return &task, nil
}

// ResetCompleted clears the flag on the user's completed tasks of one kind.
// Tasks that are already unfinished are not touched.
func (r *TaskRepository) ResetCompleted(ctx context.Context, userID uint, kind recurrence.Kind) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND kind = ? AND completed = ?", userID, kind, true).
		Update("completed", false)
	if res.Error != nil {
		return 0, fmt.Errorf("reset completed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ProgressByKind counts completed and total tasks per kind for the user.
func (r *TaskRepository) ProgressByKind(ctx context.Context, userID uint) (map[recurrence.Kind]Progress, error) {
	var rows []struct {
		Kind      recurrence.Kind
		Completed bool
		N         int
	}
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("kind, completed, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("kind, completed").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	out := make(map[recurrence.Kind]Progress, 3)
	for _, kind := range recurrence.Kinds() {
		out[kind] = Progress{}
	}
	for _, row := range rows {
		p := out[row.Kind]
		p.Total += row.N
		if row.Completed {
			p.Completed += row.N
		}
		out[row.Kind] = p
	}
	return out, nil
}
