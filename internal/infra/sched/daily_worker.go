package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"shortsforge/internal/domain"
	"shortsforge/internal/usecase"
)

// DailyBatchWorker periodically checks every stored weekly schedule for a
// batch due today and runs it under the single-flight gate. Completed-day
// and not-yet-due schedules are quiet no-ops, so the tick interval can be
// much shorter than a day.
type DailyBatchWorker struct {
	interval time.Duration
	weekly   *usecase.WeeklyUseCase
	gate     *usecase.RunGate
	log      *zerolog.Logger
}

func NewDailyBatchWorker(interval time.Duration, weekly *usecase.WeeklyUseCase, gate *usecase.RunGate, logger *zerolog.Logger) *DailyBatchWorker {
	wLog := logger.With().Str("component", "DailyBatchWorker").Logger()
	return &DailyBatchWorker{interval: interval, weekly: weekly, gate: gate, log: &wLog}
}

func (w *DailyBatchWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting daily batch worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping daily batch worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DailyBatchWorker) tick(ctx context.Context) {
	ids, err := w.weekly.List(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("list schedules")
		return
	}
	for _, id := range ids {
		token, err := w.gate.Begin("daily batch " + id)
		if errors.Is(err, domain.ErrBusy) {
			// A manually triggered operation is running; try next tick.
			return
		}
		opCtx := usecase.WithProgress(ctx, func(message string, percent int) {
			w.gate.Update(token, message, percent)
		})
		result, err := w.weekly.RunDailyBatch(opCtx, id)
		switch {
		case errors.Is(err, domain.ErrNothingDue):
			// quiet: completed or not yet due
			w.gate.Finish(token, nil, nil)
			continue
		case err != nil:
			w.gate.Finish(token, nil, err)
			w.log.Error().Err(err).Str("schedule", id).Msg("daily batch failed")
		default:
			w.gate.Finish(token, result, nil)
			w.log.Info().Str("schedule", id).Int("completed", len(result.Completed)).Msg("daily batch ran")
		}
	}
}
