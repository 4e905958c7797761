package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"

	historyLimit = 20
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(
		"👋 Hi, %s!\n\nI keep your daily, weekly and monthly routines. "+
			"Completed tasks are archived and reopened at midnight of each new day, each Monday and each first of the month, in your time zone.\n\n"+
			"Set your zone with /timezone Europe/Berlin, then add a task with /newtask.",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"/newtask — add a recurring task\n" +
		"/tasks [daily|weekly|monthly] — list tasks\n" +
		"/toggle &lt;id&gt; — mark done or undone\n" +
		"/delete &lt;id&gt; — delete a task\n" +
		"/history [daily|weekly|monthly] — archived periods\n" +
		"/report — progress and what is due today\n" +
		"/timezone [Area/City] — show or change your time zone\n" +
		"/cancel — abort the current dialog"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleTimeZone(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	zone := strings.TrimSpace(msg.CommandArguments())
	if zone == "" {
		profile, err := b.svc.Profiles.Get(ctx, user.ID)
		if err != nil {
			return err
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Your time zone is <b>%s</b>. Change it with /timezone Area/City.", escape(profile.TimeZone)))
	}

	loc, err := b.svc.Profiles.SetTimeZone(ctx, user.ID, zone)
	if errors.Is(err, service.ErrInvalidTimeZone) {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Unknown time zone %q. Use an IANA name such as <code>America/New_York</code>.", escape(zone)))
	}
	if err != nil {
		return err
	}
	b.log.Info("time zone changed", "user", user.ID, "zone", loc.String())
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Time zone set to <b>%s</b>.", escape(loc.String())))
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	kinds := recurrence.Kinds()
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		kind, err := recurrence.ParseKind(arg)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Use /tasks daily, /tasks weekly or /tasks monthly.")
		}
		kinds = []recurrence.Kind{kind}
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user, kinds)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User, kinds []recurrence.Kind) error {
	progress, err := b.svc.Tasks.Progress(ctx, user.ID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, kind := range kinds {
		tasks, err := b.svc.Tasks.ListTasks(ctx, user.ID, kind)
		if err != nil {
			return err
		}
		p := progress[kind]
		sb.WriteString(fmt.Sprintf("<b>%s</b> (%d/%d)\n", kindLabel(kind), p.Completed, p.Total))
		if len(tasks) == 0 {
			sb.WriteString("— no tasks\n\n")
			continue
		}
		for _, task := range tasks {
			sb.WriteString(service.FormatTask(task))
			rows = append(rows, taskButtons(task))
		}
		sb.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(sb.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	return b.send(msg)
}

func (b *Bot) handleToggle(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskID(msg.CommandArguments(), "")
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /toggle &lt;id&gt;")
	}
	return b.toggleTask(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.ToggleTask(ctx, user.ID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "Task not found.")
	}
	if err != nil {
		return err
	}
	b.log.Info("task toggled", "user", user.ID, "task", task.ID, "completed", task.Completed)

	state := "reopened"
	if task.Completed {
		state = "done ✅"
	}
	return b.sendText(chatID, fmt.Sprintf("«%s» %s.", escape(task.Title), state))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskID(msg.CommandArguments(), "")
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /delete &lt;id&gt;")
	}
	return b.deleteTask(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	err = b.svc.Tasks.DeleteTask(ctx, user.ID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "Task not found.")
	}
	if err != nil {
		return err
	}
	b.log.Info("task deleted", "user", user.ID, "task", taskID)
	return b.sendText(chatID, fmt.Sprintf("🗑 Task %d deleted. Its history is kept.", taskID))
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	filter := repository.HistoryFilter{UserID: user.ID}
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		kind, err := recurrence.ParseKind(arg)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Use /history daily, /history weekly or /history monthly.")
		}
		filter.Kind = kind
	}

	rows, err := b.svc.History.Recent(ctx, filter, historyLimit)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, service.FormatHistory(rows))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	report, err := b.svc.Reports.Summary(ctx, user.ID, b.clock.Now())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, service.FormatReport(report))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		b.ack(cb, "")
		taskID, err := parseTaskID(data, cbTogglePrefix)
		if err != nil {
			return nil
		}
		return b.toggleTask(ctx, cb.Message.Chat.ID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		b.ack(cb, "")
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.deleteTask(ctx, cb.Message.Chat.ID, cb.From, taskID)
	default:
		b.ack(cb, "")
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startNewTaskConversation(ctx, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg)
	case menuLabelReport:
		return true, b.handleReport(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(data, prefix))
	raw = strings.TrimPrefix(raw, "#")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return uint(id), nil
}

func kindLabel(kind recurrence.Kind) string {
	switch kind {
	case recurrence.KindWeekly:
		return "📅 Weekly"
	case recurrence.KindMonthly:
		return "🗓 Monthly"
	default:
		return "☀️ Daily"
	}
}
