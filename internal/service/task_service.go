package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

// Task content fields reported alongside the recurrence fields.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
)

// TaskInput represents data required to create or edit a task.
type TaskInput struct {
	Title       string `validate:"required,max=255"`
	Description string `validate:"max=2000"`
	Recurrence  recurrence.Candidate
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	validate *validator.Validate
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, validate: validator.New()}
}

// Check validates input and returns the recurrence it describes. Every
// violated rule is returned as recurrence.ValidationErrors.
func (s *TaskService) Check(input TaskInput) (recurrence.Spec, error) {
	input.Title = strings.TrimSpace(input.Title)

	var verrs recurrence.ValidationErrors
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			verrs = append(verrs, contentError(fe))
		}
	}

	spec, err := recurrence.Validate(input.Recurrence)
	if err != nil {
		var recErrs recurrence.ValidationErrors
		if !errors.As(err, &recErrs) {
			return nil, err
		}
		verrs = append(verrs, recErrs...)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}
	return spec, nil
}

func contentError(fe validator.FieldError) recurrence.FieldError {
	field := FieldDescription
	if fe.Field() == "Title" {
		field = FieldTitle
	}
	msg := "Invalid value."
	switch fe.Tag() {
	case "required":
		msg = "This field may not be blank."
	case "max":
		msg = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	}
	return recurrence.FieldError{Field: field, Message: msg}
}

func (s *TaskService) CreateTask(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	spec, err := s.Check(input)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
	}
	task.SetRecurrence(spec)

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a task's content and schedule. The completion flag is
// kept.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uint, input TaskInput) (*model.Task, error) {
	spec, err := s.Check(input)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	task.Title = strings.TrimSpace(input.Title)
	task.Description = strings.TrimSpace(input.Description)
	task.SetRecurrence(spec)

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, userID, taskID)
}

// ListTasks returns the user's tasks of one kind in display order.
func (s *TaskService) ListTasks(ctx context.Context, userID uint, kind recurrence.Kind) ([]model.Task, error) {
	return s.taskRepo.ListByKind(ctx, userID, kind)
}

// ToggleTask flips the completion flag.
func (s *TaskService) ToggleTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	return s.taskRepo.ToggleCompletion(ctx, userID, taskID)
}

// DeleteTask removes a task. Its history rows stay.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	return s.taskRepo.Delete(ctx, userID, taskID)
}

// Progress counts completed and total tasks per kind.
func (s *TaskService) Progress(ctx context.Context, userID uint) (map[recurrence.Kind]repository.Progress, error) {
	return s.taskRepo.ProgressByKind(ctx, userID)
}
