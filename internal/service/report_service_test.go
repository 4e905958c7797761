package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

func TestReportService_SummaryUsesUserZone(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()
	reports := NewReportService(store.Tasks, NewProfileService(store.Profiles))

	userID := createProfiledUser(t, store, 1, "Asia/Tokyo")
	createTask(t, store, userID, "daily open", recurrence.Daily{Time: at(8, 0)}, false)
	createTask(t, store, userID, "daily done", recurrence.Daily{Time: at(6, 0)}, true)
	createTask(t, store, userID, "monday", recurrence.Weekly{Time: at(7, 0), Day: time.Monday}, false)
	createTask(t, store, userID, "sunday", recurrence.Weekly{Time: at(7, 0), Day: time.Sunday}, false)
	createTask(t, store, userID, "fourth", recurrence.Monthly{Time: at(5, 0), Day: 4}, false)

	// 20:00 UTC Sunday is 05:00 Monday March 4th in Tokyo.
	report, err := reports.Summary(ctx, userID, mustTime(t, "2024-03-03T20:00:00Z"))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", report.Date.String())
	assert.Equal(t, "Asia/Tokyo", report.Zone)
	assert.Equal(t, repository.Progress{Completed: 1, Total: 2}, report.Progress[recurrence.KindDaily])
	assert.Equal(t, repository.Progress{Completed: 0, Total: 2}, report.Progress[recurrence.KindWeekly])

	var due []string
	for _, task := range report.Due {
		due = append(due, task.Title)
	}
	assert.Equal(t, []string{"fourth", "monday", "daily open"}, due)

	text := FormatReport(report)
	assert.Contains(t, text, "Progress report")
	assert.Contains(t, text, "Daily: 1/2 done")
	assert.Contains(t, text, "every Monday at 07:00")
	assert.NotContains(t, text, "sunday")
}

func TestFormatTask_EscapesHTML(t *testing.T) {
	task := model.Task{ID: 3, Title: "<b>x</b>", Description: "a & b"}
	task.SetRecurrence(recurrence.Daily{Time: at(9, 5)})

	out := FormatTask(task)
	assert.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, out, "a &amp; b")
	assert.Contains(t, out, "every day at 09:05")
}

func TestFormatHistory_GroupsByDate(t *testing.T) {
	rows := []model.TaskHistory{
		{Title: "a", Kind: recurrence.KindDaily, Date: "2024-03-02", Completed: true},
		{Title: "b", Kind: recurrence.KindDaily, Date: "2024-03-02"},
		{Title: "a", Kind: recurrence.KindDaily, Date: "2024-03-03"},
	}
	out := FormatHistory(rows)
	assert.Contains(t, out, "<b>2024-03-02</b>\n✅ a")
	assert.Contains(t, out, "<b>2024-03-03</b>")
	assert.Equal(t, "No history yet.", FormatHistory(nil))
}
