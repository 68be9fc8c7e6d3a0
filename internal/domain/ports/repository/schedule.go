package repository

import (
	"context"

	"shortsforge/internal/domain/model"
)

// ScheduleRepository persists weekly schedules as whole documents keyed by id.
type ScheduleRepository interface {
	Save(ctx context.Context, s *model.WeeklySchedule) error
	FindByID(ctx context.Context, id string) (*model.WeeklySchedule, error)
	ListIDs(ctx context.Context) ([]string, error)
}
