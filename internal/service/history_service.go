package service

import (
	"context"
	"fmt"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// HistoryService is the read side of the archive, used by reports and export.
type HistoryService struct {
	history *repository.HistoryRepository
}

func NewHistoryService(history *repository.HistoryRepository) *HistoryService {
	return &HistoryService{history: history}
}

func (s *HistoryService) List(ctx context.Context, filter repository.HistoryFilter) ([]model.TaskHistory, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("unknown recurrence kind %q", filter.Kind)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("history range ends %s before it starts %s", filter.To, filter.From)
	}
	return s.history.List(ctx, filter)
}

// Recent returns the last limit rows matching filter, oldest first.
func (s *HistoryService) Recent(ctx context.Context, filter repository.HistoryFilter, limit int) ([]model.TaskHistory, error) {
	filter.Limit = 0
	rows, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}
