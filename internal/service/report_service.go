package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

// Report is a user's progress and what is due on their local today.
type Report struct {
	UserID   uint
	Date     recurrence.Date
	Zone     string
	Progress map[recurrence.Kind]repository.Progress
	Due      []model.Task
}

// ReportService builds human-readable progress summaries.
type ReportService struct {
	taskRepo *repository.TaskRepository
	profiles *ProfileService
}

func NewReportService(taskRepo *repository.TaskRepository, profiles *ProfileService) *ReportService {
	return &ReportService{taskRepo: taskRepo, profiles: profiles}
}

// Summary evaluates the report in the user's own zone at now.
func (s *ReportService) Summary(ctx context.Context, userID uint, now time.Time) (*Report, error) {
	loc, err := s.profiles.Location(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := recurrence.DateOf(now.In(loc))

	progress, err := s.taskRepo.ProgressByKind(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &Report{UserID: userID, Date: today, Zone: loc.String(), Progress: progress}
	for _, kind := range recurrence.Kinds() {
		tasks, err := s.taskRepo.ListByKind(ctx, userID, kind)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			if task.Completed {
				continue
			}
			spec, err := task.Recurrence()
			if err != nil {
				return nil, err
			}
			if recurrence.DueOn(spec, today) {
				report.Due = append(report.Due, task)
			}
		}
	}

	sort.SliceStable(report.Due, func(i, j int) bool {
		return report.Due[i].TimeOfDay < report.Due[j].TimeOfDay
	})
	return report, nil
}

// FormatReport renders a report as Telegram HTML.
func FormatReport(r *Report) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Progress report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s (%s)\n\n", r.Date, html.EscapeString(r.Zone)))

	for _, kind := range recurrence.Kinds() {
		p := r.Progress[kind]
		builder.WriteString(fmt.Sprintf("%s %s: %d/%d done\n", kindIcon(kind), kindTitle(kind), p.Completed, p.Total))
	}

	builder.WriteString("\n🔥 <b>Due today</b>\n")
	if len(r.Due) == 0 {
		builder.WriteString("— nothing left for today\n")
	} else {
		for _, task := range r.Due {
			builder.WriteString(FormatTask(task))
		}
	}

	return strings.TrimSpace(builder.String())
}

// FormatTask renders one task line with its schedule.
func FormatTask(task model.Task) string {
	var sb strings.Builder

	icon := "⬜️"
	if task.Completed {
		icon = "✅"
	}
	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s <code>#%d</code> %s", icon, task.ID, title))

	if spec, err := task.Recurrence(); err == nil {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", recurrence.Describe(spec)))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// FormatHistory renders archived snapshots, newest boundary last.
func FormatHistory(rows []model.TaskHistory) string {
	if len(rows) == 0 {
		return "No history yet."
	}
	var sb strings.Builder
	sb.WriteString("🗂 <b>History</b>\n")
	current := ""
	for _, row := range rows {
		if row.Date != current {
			current = row.Date
			sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", current))
		}
		icon := "❌"
		if row.Completed {
			icon = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s <i>(%s)</i>\n", icon, html.EscapeString(row.Title), row.Kind))
	}
	return strings.TrimSpace(sb.String())
}

func kindIcon(kind recurrence.Kind) string {
	switch kind {
	case recurrence.KindWeekly:
		return "📅"
	case recurrence.KindMonthly:
		return "🗓"
	default:
		return "☀️"
	}
}

func kindTitle(kind recurrence.Kind) string {
	s := kind.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
