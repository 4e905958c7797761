package model

import "taskmaster/internal/recurrence"

// TaskHistory is the snapshot of one task at one period boundary. Rows are
// only ever appended.
type TaskHistory struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"index:idx_history_user_kind_date"`
	TaskID      uint            `gorm:"index"`
	Kind        recurrence.Kind `gorm:"size:10;index:idx_history_user_kind_date"`
	Title       string          `gorm:"size:255"`
	Description string
	TimeOfDay   string  `gorm:"size:5"`
	DayOfWeek   *string `gorm:"size:9"`
	DayOfMonth  *int
	Completed   bool
	// Date is the local calendar date of the boundary, YYYY-MM-DD.
	Date string `gorm:"size:10;index:idx_history_user_kind_date"`
}

// TableName keeps the plural history table name stable.
func (TaskHistory) TableName() string {
	return "task_histories"
}

// SnapshotOf captures task as it stands at boundary.
func SnapshotOf(task Task, boundary recurrence.Date) TaskHistory {
	return TaskHistory{
		UserID:      task.UserID,
		TaskID:      task.ID,
		Kind:        task.Kind,
		Title:       task.Title,
		Description: task.Description,
		TimeOfDay:   task.TimeOfDay,
		DayOfWeek:   task.DayOfWeek,
		DayOfMonth:  task.DayOfMonth,
		Completed:   task.Completed,
		Date:        boundary.String(),
	}
}
