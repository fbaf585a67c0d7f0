package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"life-organizer/internal/bot"
	"life-organizer/internal/config"
	"life-organizer/internal/logging"
	"life-organizer/internal/predict"
	"life-organizer/internal/proxy"
	"life-organizer/internal/repository"
	"life-organizer/internal/service"
	"life-organizer/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("organizer stopped with error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	slots := repository.NewSlotRepository(db)
	subscribers := repository.NewSubscriberRepository(db)

	now := func() time.Time { return time.Now().In(cfg.Location) }
	predictor := predict.New(slots,
		predict.WithClock(now),
		predict.WithMaxPerTitle(cfg.PredictionMaxPerTitle),
		predict.WithLogger(logger.Named("predict")),
	)
	storeOpts := []store.Option{store.WithClock(now), store.WithLogger(logger.Named("store"))}
	stores := service.Stores{
		Tasks:     store.NewTaskStore(slots, predictor, storeOpts...),
		Habits:    store.NewHabitStore(slots, store.IncrementalStreak{}, storeOpts...),
		Groceries: store.NewGroceryStore(slots, storeOpts...),
		Expenses:  store.NewExpenseStore(slots, storeOpts...),
		Predictor: predictor,
	}

	syncSvc := service.NewSyncService(stores,
		proxy.NewReminderClient(cfg.ReminderSyncURL, cfg.ProxyTimeout),
		proxy.NewExpenseClient(cfg.ExpenseSyncURL, cfg.ProxyTimeout),
		proxy.NewGroceryPlanClient(cfg.GroceryPlanURL, cfg.ProxyTimeout),
		service.WithExpenseGroup(cfg.ExpenseGroupID),
		service.WithSyncClock(now),
		service.WithSyncLogger(logger.Named("sync")),
	)

	var assistant *service.Assistant
	if cfg.AssistantURL != "" {
		assistant = service.NewAssistant(stores, proxy.NewChatClient(cfg.AssistantURL, cfg.ProxyTimeout), now, logger.Named("assistant"))
	}

	api, err := bot.NewAPI(cfg.TelegramToken, logger)
	if err != nil {
		return err
	}

	// The bot renders digests through the reminder service and is also its
	// delivery channel, so delivery is bound once the bot exists.
	reminders := service.NewReminderService(stores, nil, nil, cfg.NotifyWindow, logger.Named("reminders"))

	telegramBot := bot.New(api, bot.Deps{
		Subscribers: subscribers,
		Stores:      stores,
		Reminders:   reminders,
		Sync:        syncSvc,
		Assistant:   assistant,
	}, bot.WithOwner(cfg.OwnerChatID), bot.WithClock(now), bot.WithLogger(logger.Named("bot")))

	var notifier service.Notifier = telegramBot
	if cfg.PushURL != "" {
		notifier = service.FanOut{telegramBot, proxy.NewPushClient(cfg.PushURL, cfg.ProxyTimeout)}
	}
	reminders.SetDelivery(notifier, telegramBot)

	scheduler := service.NewSchedulerService(cfg.Location, logger.Named("scheduler"))
	if _, err := scheduler.ScheduleInterval(cfg.DuePollInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := reminders.EvaluateNow(jobCtx, now()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("due check", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyDigest(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("daily digest", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("life organizer started",
		zap.String("database", cfg.DatabaseURL),
		zap.String("timezone", cfg.Location.String()),
		zap.Int("scheduled_jobs", scheduler.Entries()),
	)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
