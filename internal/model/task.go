package model

import (
	"fmt"
	"time"

	"taskmaster/internal/recurrence"
)

// Task is an active recurring task. The recurrence variant is flattened into
// Kind plus the columns that variant owns; columns of other variants stay NULL.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index:idx_task_user_kind"`
	Title       string `gorm:"size:255"`
	Description string
	Completed   bool            `gorm:"default:false"`
	Kind        recurrence.Kind `gorm:"size:10;index:idx_task_user_kind"`
	TimeOfDay   string          `gorm:"size:5"`
	DayOfWeek   *string         `gorm:"size:9"`
	DayOfMonth  *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Recurrence rebuilds the tagged variant from the stored columns.
func (t Task) Recurrence() (recurrence.Spec, error) {
	c := recurrence.Candidate{
		TimeOfDay:  t.TimeOfDay,
		DayOfMonth: t.DayOfMonth,
	}
	if t.DayOfWeek != nil {
		c.DayOfWeek = *t.DayOfWeek
	}
	switch t.Kind {
	case recurrence.KindDaily:
		c.Daily = true
	case recurrence.KindWeekly:
		c.Weekly = true
	case recurrence.KindMonthly:
		c.Monthly = true
	}
	spec, err := recurrence.Validate(c)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", t.ID, err)
	}
	return spec, nil
}

// SetRecurrence stores spec, clearing the columns of every other variant.
func (t *Task) SetRecurrence(spec recurrence.Spec) {
	t.Kind = spec.Kind()
	t.TimeOfDay = spec.At().String()
	t.DayOfWeek = nil
	t.DayOfMonth = nil
	switch s := spec.(type) {
	case recurrence.Weekly:
		day := s.Day.String()
		t.DayOfWeek = &day
	case recurrence.Monthly:
		date := s.Day
		t.DayOfMonth = &date
	}
}
