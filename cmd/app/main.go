package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shortsforge/internal/config"
	"shortsforge/internal/infra/adapters/generation"
	"shortsforge/internal/infra/adapters/render"
	"shortsforge/internal/infra/adapters/watermark"
	boltdb "shortsforge/internal/infra/db/bolt"
	"shortsforge/internal/infra/logging"
	"shortsforge/internal/infra/metrics"
	"shortsforge/internal/infra/sched"
	"shortsforge/internal/infra/web"
	"shortsforge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (scripted provider, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Storage ----
	store, err := boltdb.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	campaignRepo := boltdb.NewCampaignRepo(store)
	scheduleRepo := boltdb.NewScheduleRepo(store)
	usageRepo := boltdb.NewUsageRepo(store)

	// ---- Collaborators ----
	// The scripted provider and concat renderer stand in for the real
	// browser-driven generation stack and compositor.
	provider := generation.NewScriptedProvider(200 * time.Millisecond)
	cleaner := watermark.NewCopyCleaner()
	renderer := render.NewConcatRenderer()

	// ---- Use cases ----
	pool, err := usecase.NewAccountPool(ctx, cfg.Accounts.Count, cfg.Accounts.DailyLimit, usageRepo, provider, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("account pool")
	}
	defer pool.CloseAll()

	campaignUC := usecase.NewCampaignUseCase(campaignRepo, pool, provider, cleaner, renderer, cfg.Campaign, cfg.Timeouts, logger)
	retryUC := usecase.NewRetryUseCase(campaignUC, logger)
	weeklyUC := usecase.NewWeeklyUseCase(scheduleRepo, campaignUC, retryUC, cfg.Campaign.DailyCap, cfg.Campaign.ScheduleDays, logger)
	gate := usecase.NewRunGate()

	// ---- Daily batch worker ----
	worker := sched.NewDailyBatchWorker(cfg.Scheduler.Interval, weeklyUC, gate, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- HTTP server ----
	srv := web.NewServer(campaignUC, retryUC, weeklyUC, gate, cfg.Web.APIKey, ctx, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Web.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
