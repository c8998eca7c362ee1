package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kshaab/Coursework-5/internal/config"
	"github.com/kshaab/Coursework-5/internal/db"
	"github.com/kshaab/Coursework-5/internal/repository"
	"github.com/kshaab/Coursework-5/internal/service"
	"github.com/kshaab/Coursework-5/internal/storage"
	"github.com/kshaab/Coursework-5/internal/telegram"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Storage         storage.Storage
	AuthService     *service.AuthService
	UserService     *service.UserService
	HabitService    *service.HabitService
	ReminderService *service.ReminderService
	EmailService    *service.EmailService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if cfg.AutoMigrate {
		err = db.RunMigrations(database.DB, cfg.DBDriver)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	habitRepository := repository.NewHabitRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		cfg.JWTSecret,
		cfg.JWTAccessExpiry,
		cfg.JWTRefreshExpiry,
	)
	userService := service.NewUserService(userRepository, fileStorage, emailService)
	habitService := service.NewHabitService(habitRepository)

	telegramClient := telegram.NewClient(cfg.TelegramURL, cfg.TelegramToken, cfg.TelegramTimeout)
	reminderService := service.NewReminderService(habitRepository, telegramClient, cfg.Location())

	return &App{
		Cfg:             cfg,
		DB:              database,
		Storage:         fileStorage,
		AuthService:     authService,
		UserService:     userService,
		HabitService:    habitService,
		ReminderService: reminderService,
		EmailService:    emailService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
