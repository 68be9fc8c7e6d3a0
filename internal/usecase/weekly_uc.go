package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/repository"
	"shortsforge/internal/infra/logging"
)

// WeeklyUseCase splits a large prompt list into daily sub-batches bound to
// calendar dates and drives one sub-batch per day through the campaign
// runner.
type WeeklyUseCase struct {
	schedules repository.ScheduleRepository
	campaigns *CampaignUseCase
	retries   *RetryUseCase

	dailyCap     int
	scheduleDays int

	log *zerolog.Logger
	now func() time.Time
}

func NewWeeklyUseCase(schedules repository.ScheduleRepository, campaigns *CampaignUseCase, retries *RetryUseCase, dailyCap, scheduleDays int, logger *zerolog.Logger) *WeeklyUseCase {
	ucLog := logger.With().Str("component", "WeeklyUC").Logger()
	return &WeeklyUseCase{
		schedules:    schedules,
		campaigns:    campaigns,
		retries:      retries,
		dailyCap:     dailyCap,
		scheduleDays: scheduleDays,
		log:          &ucLog,
		now:          time.Now,
	}
}

// CreateSchedule chunks prompts into consecutive day batches of at most the
// daily cap, assigns batch k to today+k, and persists the schedule.
func (uc *WeeklyUseCase) CreateSchedule(ctx context.Context, prompts []model.PromptPair, voiceText string) (*model.WeeklySchedule, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: empty prompt list", domain.ErrInvalidArgument)
	}
	max := uc.scheduleDays * uc.dailyCap
	if len(prompts) > max {
		return nil, fmt.Errorf("%w: at most %d prompts (%d days x %d per day)", domain.ErrTooManyPrompts, max, uc.scheduleDays, uc.dailyCap)
	}

	id := "longvideo_" + uc.now().Format("20060102_150405")
	s := model.NewWeeklySchedule(id, prompts, voiceText, uc.dailyCap, uc.now())
	if err := uc.schedules.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}
	uc.log.Info().Str("schedule", id).Int("prompts", s.TotalPrompts).Int("days", s.Days).Msg("weekly schedule created")
	return s, nil
}

// Get returns a stored schedule.
func (uc *WeeklyUseCase) Get(ctx context.Context, id string) (*model.WeeklySchedule, error) {
	return uc.schedules.FindByID(ctx, id)
}

// List returns the ids of all stored schedules.
func (uc *WeeklyUseCase) List(ctx context.Context) ([]string, error) {
	return uc.schedules.ListIDs(ctx)
}

// RunDailyBatch runs the first incomplete batch scheduled for today.
// Returns ErrNothingDue when no batch is due, which covers both an
// already-completed batch (idempotent re-invocation) and a batch whose date
// has not arrived. A batch whose sub-campaign already exists from an earlier
// partial run goes through the retry engine so succeeded items are never
// regenerated.
func (uc *WeeklyUseCase) RunDailyBatch(ctx context.Context, id string) (*RunResult, error) {
	defer logging.TraceDuration(uc.log, "WeeklyUC.RunDailyBatch")()
	s, err := uc.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	today := model.DateOf(uc.now())
	batch := s.DueBatch(today)
	if batch == nil {
		return nil, domain.ErrNothingDue
	}
	progressFrom(ctx)(fmt.Sprintf("day %d batch: %d prompts", batch.Day, len(batch.Prompts)), 0)

	if batch.CampaignName == "" {
		batch.CampaignName = fmt.Sprintf("%s_day%d", s.ID, batch.Day)
		if err := uc.schedules.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("persist schedule: %w", err)
		}
	}

	var result *RunResult
	if _, err := uc.campaigns.Progress(ctx, batch.CampaignName); errors.Is(err, domain.ErrNotFound) {
		result, err = uc.campaigns.Create(ctx, CreateRequest{
			Name:      batch.CampaignName,
			Prompts:   batch.Prompts,
			VoiceText: s.VoiceText,
		})
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		result, err = uc.retries.Retry(ctx, batch.CampaignName, nil)
		if err != nil {
			return nil, err
		}
	}

	batch.VideosCreated = len(result.Completed)
	if len(result.Incomplete) == 0 {
		batch.Completed = true
	}
	if err := uc.schedules.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}
	uc.log.Info().Str("schedule", id).Int("day", batch.Day).Int("videos", batch.VideosCreated).
		Bool("completed", batch.Completed).Msg("daily batch processed")
	return result, nil
}
