package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/config"
	"attendance-bot/internal/handler"
	"attendance-bot/internal/logger"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"
	"attendance-bot/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()

	logs, err := logger.NewFactory(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}
	defer logs.Close()

	log := logs.Get("main")
	log.WithFields(logrus.Fields{
		"timezone": cfg.Location().String(),
		"database": cfg.DatabaseURL,
		"workers":  cfg.ReportWorkers,
	}).Info("Config initialized")

	// Инициализируем SQLite базу данных
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
		Logger: gormlogger.New(logs.Get("gorm"), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get database instance")
	}

	// Включаем поддержку внешних ключей (требуется для SQLite)
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.WithError(err).Warn("Failed to enable foreign keys")
	}

	repoLog := logs.Get("repository")

	userRepo, err := repository.NewGormUserRepository(db, repoLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to create user repository")
	}

	eventRepo, err := repository.NewGormActionEventRepository(db, repoLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to create action event repository")
	}

	absenceRepo, err := repository.NewGormAbsencePeriodRepository(db, repoLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to create absence period repository")
	}

	nonWorkingDayRepo, err := repository.NewGormNonWorkingDayRepository(db, repoLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to create non-working day repository")
	}

	engine := attendance.NewEngine(
		attendance.WithLocation(cfg.Location()),
		attendance.WithWorkers(cfg.ReportWorkers),
	)

	serviceLog := logs.Get("service")
	userService := service.NewUserService(userRepo, eventRepo, absenceRepo, serviceLog)
	attendanceService := service.NewAttendanceService(
		eventRepo,
		absenceRepo,
		nonWorkingDayRepo,
		userRepo,
		engine,
		cfg.QueryTimeout,
		serviceLog,
	)
	absenceService := service.NewAbsenceService(absenceRepo, userRepo, cfg.Location(), serviceLog)
	nonWorkingDayService := service.NewNonWorkingDayService(nonWorkingDayRepo, serviceLog)

	// Инициализируем администратора из конфига
	if err := userService.InitializeAdmin(cfg.BaseAdminChatID); err != nil {
		log.WithError(err).Warn("Failed to initialize admin")
	} else if cfg.BaseAdminChatID != 0 {
		log.WithField("chat_id", cfg.BaseAdminChatID).Info("Admin initialized")
	}

	// Загружаем производственный календарь
	if cfg.HolidaysFile != "" {
		if _, err := nonWorkingDayService.LoadFromJSON(cfg.HolidaysFile); err != nil {
			log.WithError(err).WithField("file", cfg.HolidaysFile).Warn("Failed to load holiday calendar")
		}
	}

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.BotDebug)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Telegram client")
	}
	log.WithField("account", client.Bot.Self.UserName).Info("Authorized on account")

	botHandler := handler.NewHandler(
		client,
		userService,
		attendanceService,
		absenceService,
		nonWorkingDayService,
		cfg,
		logs.Get("handler"),
	)

	// Обработка сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		botHandler.HandleUpdates(ctx, client.Updates())
		close(done)
	}()

	log.Info("Bot started. Press Ctrl+C to stop.")
	<-ctx.Done()

	client.Stop()
	<-done

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database")
	}

	log.Info("Bot stopped gracefully")
}
