package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/recurrence"
	"taskmaster/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageKind
	stageTime
	stageWeekday
	stageDayOfMonth
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or press “Skip”).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageKind
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 How often does it repeat?", kindKeyboard())
	case stageKind:
		kind, err := recurrence.ParseKind(strings.TrimLeft(text, "☀️📅🗓 "))
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Daily, Weekly or Monthly.", kindKeyboard())
		}
		state.input.Recurrence = recurrence.Candidate{
			Daily:   kind == recurrence.KindDaily,
			Weekly:  kind == recurrence.KindWeekly,
			Monthly: kind == recurrence.KindMonthly,
		}
		state.stage = stageTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ At what time? Use 24-hour <code>HH:MM</code>, e.g. <code>07:30</code>.", cancelKeyboard())
	case stageTime:
		state.input.Recurrence.TimeOfDay = text
		switch {
		case state.input.Recurrence.Weekly:
			state.stage = stageWeekday
			return b.sendWithReplyMarkup(msg.Chat.ID, "📅 On which day of the week?", weekdayKeyboard())
		case state.input.Recurrence.Monthly:
			state.stage = stageDayOfMonth
			return b.sendWithReplyMarkup(msg.Chat.ID, "🗓 On which day of the month (1–31)? Short months use their last day.", cancelKeyboard())
		}
		return b.finishTaskCreation(ctx, msg, state)
	case stageWeekday:
		state.input.Recurrence.DayOfWeek = text
		return b.finishTaskCreation(ctx, msg, state)
	case stageDayOfMonth:
		day, err := strconv.Atoi(text)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Invalid value. Choose a day from 1 to 31.")
		}
		state.input.Recurrence.DayOfMonth = &day
		return b.finishTaskCreation(ctx, msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Conversation reset. Try again with /newtask.")
	}
}

// finishTaskCreation saves the task or, on validation errors, reports every
// message and asks again for the first offending field.
func (b *Bot) finishTaskCreation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.CreateTask(ctx, user.ID, state.input)
	var verrs recurrence.ValidationErrors
	if errors.As(err, &verrs) {
		state.stage = stageForField(verrs[0].Field)
		var sb strings.Builder
		sb.WriteString("⚠️ Please fix:\n")
		for _, fe := range verrs {
			sb.WriteString(fmt.Sprintf("• <b>%s</b>: %s\n", fe.Field, escape(fe.Message)))
		}
		sb.WriteString("\n")
		sb.WriteString(promptForStage(state.stage))
		return b.sendWithReplyMarkup(msg.Chat.ID, sb.String(), markupForStage(state.stage))
	}
	b.clearConversation(msg.From.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	b.log.Info("task created", "user", user.ID, "task", task.ID, "kind", task.Kind)

	spec, _ := task.Recurrence()
	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	if spec != nil {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", recurrence.Describe(spec)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(summary.String()))
}

func stageForField(field string) conversationStage {
	switch field {
	case service.FieldTitle:
		return stageTitle
	case service.FieldDescription:
		return stageDescription
	case recurrence.FieldKind:
		return stageKind
	case recurrence.FieldDayOfWeek:
		return stageWeekday
	case recurrence.FieldDayOfMonth:
		return stageDayOfMonth
	default:
		return stageTime
	}
}

func promptForStage(stage conversationStage) string {
	switch stage {
	case stageTitle:
		return "What should the task be called?"
	case stageDescription:
		return "Send a shorter description (or “Skip”)."
	case stageKind:
		return "How often does it repeat?"
	case stageWeekday:
		return "On which day of the week?"
	case stageDayOfMonth:
		return "On which day of the month (1–31)?"
	default:
		return "At what time? Use 24-hour <code>HH:MM</code>."
	}
}

func markupForStage(stage conversationStage) interface{} {
	switch stage {
	case stageDescription:
		return skipKeyboard()
	case stageKind:
		return kindKeyboard()
	case stageWeekday:
		return weekdayKeyboard()
	default:
		return cancelKeyboard()
	}
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	return ok && state != nil && state.stage != stageNone
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
