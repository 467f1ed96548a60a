package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"silah_dispatcher/internal/app"
	"silah_dispatcher/internal/infra/config"
	idb "silah_dispatcher/internal/infra/database"
	"silah_dispatcher/internal/infra/fcm"
	"silah_dispatcher/internal/infra/httpapi"
	"silah_dispatcher/internal/infra/lock"
	"silah_dispatcher/internal/infra/logger"
	"silah_dispatcher/internal/infra/scheduler"
	"silah_dispatcher/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Component("main")
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"http_addr":   cfg.HTTPAddr,
		"zone":        cfg.ReferenceZone().String(),
	}).Info("Configuration loaded.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	scheduleRepo := idb.NewPostgresScheduleRepository(db)
	announcementRepo := idb.NewPostgresAnnouncementRepository(db)
	profileRepo := idb.NewPostgresProfileRepository(db)
	deviceRepo := idb.NewPostgresDeviceRepository(db)
	historyRepo := idb.NewPostgresHistoryRepository(db)

	account, err := fcm.LoadServiceAccount(cfg.FCMServiceAccountJSON, cfg.FCMServiceAccountFile)
	if err != nil {
		log.Fatalf("FATAL: Could not load FCM credentials: %v", err)
	}
	tokenSource, err := fcm.NewTokenSource(account, nil)
	if err != nil {
		log.Fatalf("FATAL: Could not initialise FCM token source: %v", err)
	}
	sender := fcm.NewSender(fcm.DefaultBaseURL, account.ProjectID, nil)
	log.WithField("project_id", account.ProjectID).Info("FCM client initialized.")

	var locker app.Locker = lock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to redis: %v", err)
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.RedisPrefix)
		log.Info("Redis job lock enabled.")
	}

	zone := cfg.ReferenceZone()
	dispatcher := app.NewDispatcher(deviceRepo, tokenSource, sender, historyRepo, app.DispatcherConfig{
		AndroidChannel: cfg.FCMAndroidChannelID,
		SendInterval:   cfg.SendInterval,
		SendTimeout:    cfg.SendTimeout,
	}, logger.Component("dispatcher"))
	resolver := app.NewResolver(profileRepo, cfg.ActiveWindow())

	jobs := app.NewJobs(
		app.NewReminderService(scheduleRepo, dispatcher, zone, logger.Component("reminders")),
		app.NewAnnouncementService(announcementRepo, resolver, dispatcher, logger.Component("announcements")),
		app.NewStreakService(profileRepo, profileRepo, dispatcher, zone, logger.Component("streaks")),
		locker,
		cfg.JobLockTTL,
		logger.Component("jobs"),
	)
	pushService := app.NewPushService(dispatcher, logger.Component("push"))

	if cfg.TelegramEnabled() {
		tgLogger := logger.Component("telegram")
		bot, err := telegram.NewBot(cfg.TelegramToken, func(err error, c telebot.Context) {
			tgLogger.WithError(err).Error("telebot error")
		})
		if err != nil {
			log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		jobs.SetReporter(telegram.NewOpsReporter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID, tgLogger))
		telegram.RegisterOpsHandlers(ctx, bot, jobs, cfg.AdminTelegramID, cfg.JobTimeout, tgLogger)
		go bot.Start()
		defer bot.Stop()
		log.Info("Telegram ops chat started.")
	}

	var notifScheduler *scheduler.NotificationScheduler
	if cfg.SchedulerEnabled {
		notifScheduler = scheduler.NewNotificationScheduler(jobs, scheduler.Specs{
			Reminders:     cfg.CronSpecReminders,
			Announcements: cfg.CronSpecAnnouncements,
			Streaks:       cfg.CronSpecStreaks,
		}, zone, cfg.JobTimeout, logger.Component("scheduler"))
		if err := notifScheduler.Start(); err != nil {
			log.Fatalf("FATAL: Could not start scheduler: %v", err)
		}
	}

	handler := httpapi.NewHandler(jobs, pushService, cfg.JobTimeout, logger.Component("http"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, cfg.CronSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown was not clean")
	}
	if notifScheduler != nil {
		notifScheduler.Stop()
	}
	log.Info("Application shut down gracefully.")
}
