package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/app"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/config"
	idb "github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/database"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/logger"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/ops"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/scheduler"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	appLog := logger.New(cfg.LogLevel, cfg.Environment)
	appLog.WithField("timezone", cfg.Timezone.String()).Info("Birthday reminder bot starting")

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		appLog.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	appLog.Info("Database connection established")

	// Repositories
	birthdayRepo := idb.NewPostgresBirthdayRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	groupRepo := idb.NewPostgresGroupRepository(db)

	// Telegram bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := appLog.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		appLog.WithError(err).Fatal("Could not create Telegram bot")
	}

	// Services and jobs
	sink := telegram.NewTelebotAdapter(bot)
	birthdayService := app.NewBirthdayService(birthdayRepo, cfg.Timezone, appLog)
	materializer := app.NewMaterializer(birthdayRepo, reminderRepo, groupRepo, appLog)
	dispatcher := app.NewDispatcher(reminderRepo, sink, cfg.DispatchPacing, appLog)
	sweeper := app.NewSweeper(reminderRepo, appLog)

	jobScheduler := scheduler.NewJobScheduler(
		materializer, dispatcher, sweeper,
		cfg.Timezone, cfg.RetentionDays,
		cfg.CronSpecMaterialize, cfg.CronSpecDispatch, cfg.CronSpecSweep,
		appLog,
	)
	if err := jobScheduler.Start(); err != nil {
		appLog.WithError(err).Fatal("Could not start job scheduler")
	}

	// Handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	telegram.RegisterBotCommands(ctx, bot, birthdayService, groupRepo, appLog.WithField("component", "telegram"))
	appLog.Info("Bot command handlers registered")

	// Ops server
	opsServer := &http.Server{
		Addr:    cfg.OpsListenAddr,
		Handler: ops.NewServer(db, jobScheduler, appLog).Router(),
	}
	go func() {
		appLog.WithField("addr", cfg.OpsListenAddr).Info("Ops server listening")
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Fatal("Ops server failed")
		}
	}()

	go bot.Start()
	appLog.Info("Application setup complete")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down")
	bot.Stop()
	jobScheduler.Stop() // waits for in-flight jobs

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Warn("Ops server shutdown was not clean")
	}
	appLog.Info("Application shut down gracefully")
}
