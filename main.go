package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "astro-backend/cmd/api"
	"astro-backend/internal/notification/delivery"
	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"
	"astro-backend/internal/notification/scheduler"
	"astro-backend/internal/notification/usecase"
	"astro-backend/pkg/apns"
	"astro-backend/pkg/config"
	"astro-backend/pkg/database"
	"astro-backend/pkg/expo"
	"astro-backend/pkg/logger"
	"astro-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Open(cfg.DSN(), database.Options{
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	}, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Auto-migrate the tables owned by the notification service
	if err := database.Migrate(db, repository.Models()...); err != nil {
		zl.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Initialize repositories (dependency injection)
	tokenRepo := repository.NewTokenRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	followerRepo := repository.NewFollowerRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Provider adapters
	expoClient := expo.NewClient(expo.Config{
		AccessToken: cfg.Expo.AccessToken,
		BaseURL:     cfg.Expo.BaseURL,
	}, zl)
	apnsClient := apns.NewClient(apns.Config{
		KeyPath:    cfg.APNs.KeyPath,
		KeyID:      cfg.APNs.KeyID,
		TeamID:     cfg.APNs.TeamID,
		BundleID:   cfg.APNs.BundleID,
		Production: cfg.APNs.Production,
	}, zl)

	senders := usecase.Senders{
		domain.DeviceClassManaged:     expoClient,
		domain.DeviceClassNativeApple: apnsClient,
	}
	checkers := usecase.ReceiptCheckers{
		domain.DeviceClassManaged:     expoClient,
		domain.DeviceClassNativeApple: apnsClient,
	}

	// Initialize use cases
	dispatcher := usecase.NewDispatcher(tokenRepo, preferenceRepo, notificationRepo, senders, zl)
	fanOut := usecase.NewFanOut(dispatcher, followerRepo, cfg.FanOut.Concurrency, zl)
	reconciler := usecase.NewReconciler(notificationRepo, checkers, zl)
	inbox := usecase.NewInboxUsecase(tokenRepo, preferenceRepo, notificationRepo, senders, zl)

	// Delivery guard (optional, needs Redis)
	var guard scheduler.DeliveryGuard
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zl)
		if err != nil {
			zl.Warn("Redis unavailable, scheduled sends are not deduplicated", zap.Error(err))
		} else {
			defer redisClient.Close()
			guard = scheduler.NewRedisGuard(redisClient, zl)
		}
	} else {
		zl.Warn("REDIS_ADDR not set, scheduled sends are not deduplicated")
	}

	// Scheduler
	var jobs delivery.JobRunner
	if cfg.Scheduler.Enabled {
		schedules, err := buildSchedules(cfg)
		if err != nil {
			zl.Fatal("Invalid schedule", zap.Error(err))
		}
		notificationScheduler := scheduler.NewNotificationScheduler(
			preferenceRepo, userRepo, fanOut, scheduler.PlaceholderContent{}, guard, schedules, cfg.Location(), zl,
		)
		notificationScheduler.Start(ctx)
		defer notificationScheduler.Stop()
		jobs = notificationScheduler
	} else {
		zl.Info("Scheduler disabled")
	}

	notificationHandler := delivery.NewNotificationHandler(dispatcher, fanOut, reconciler, inbox, jobs)
	handler := api.NewHandler(notificationHandler, cfg, zl)

	if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
		zl.Error("Server stopped with error", zap.Error(err))
	}
}

func buildSchedules(cfg *config.Config) (scheduler.Schedules, error) {
	loc := cfg.Location()
	clocks := map[scheduler.Job]string{
		scheduler.JobDailyHoroscope:   cfg.Schedule.Horoscope,
		scheduler.JobMoonPhase:        cfg.Schedule.MoonPhase,
		scheduler.JobPlanetaryTransit: cfg.Schedule.PlanetaryTransit,
	}
	schedules := make(scheduler.Schedules, len(clocks))
	for job, clock := range clocks {
		s, err := scheduler.ParseDailyAt(clock, loc)
		if err != nil {
			return nil, err
		}
		schedules[job] = s
	}
	return schedules, nil
}
