package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/repository"
)

var _ repository.ScheduleRepository = (*ScheduleRepo)(nil)

// ScheduleRepo stores weekly schedules as JSON documents keyed by id.
type ScheduleRepo struct {
	store *Store
}

func NewScheduleRepo(store *Store) *ScheduleRepo {
	return &ScheduleRepo{store: store}
}

func (r *ScheduleRepo) Save(ctx context.Context, s *model.WeeklySchedule) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal schedule %s: %w", s.ID, err)
	}
	if err := r.store.put(bucketSchedules, s.ID, doc); err != nil {
		return fmt.Errorf("store schedule %s: %w", s.ID, err)
	}
	return nil
}

func (r *ScheduleRepo) FindByID(ctx context.Context, id string) (*model.WeeklySchedule, error) {
	doc, err := r.store.get(bucketSchedules, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	var s model.WeeklySchedule
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("decode schedule %s: %w", id, err)
	}
	return &s, nil
}

func (r *ScheduleRepo) ListIDs(ctx context.Context) ([]string, error) {
	return r.store.keys(bucketSchedules)
}
