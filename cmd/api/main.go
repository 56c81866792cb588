package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/coachdesk/coaching-platform/internal/api/router"
	"github.com/coachdesk/coaching-platform/internal/appointments"
	"github.com/coachdesk/coaching-platform/internal/appointmenttypes"
	"github.com/coachdesk/coaching-platform/internal/availability"
	appconfig "github.com/coachdesk/coaching-platform/internal/config"
	"github.com/coachdesk/coaching-platform/internal/notify"
	"github.com/coachdesk/coaching-platform/internal/observability/metrics"
	"github.com/coachdesk/coaching-platform/internal/rooms"
	"github.com/coachdesk/coaching-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting coachdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache disabled", "error", err)
			redisClient = nil
		}
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Video room provider. Without an API key the scheduler books
	// phone/in-person style with no rooms.
	var roomProvider rooms.Provider
	var roomClient *rooms.Client
	if cfg.RoomAPIKey != "" {
		roomClient = rooms.NewClient(rooms.ClientConfig{
			BaseURL: cfg.RoomAPIBaseURL,
			APIKey:  cfg.RoomAPIKey,
			Timeout: cfg.RoomAPITimeout,
		}, logger)
		roomProvider = roomClient
	} else {
		logger.Warn("ROOM_API_KEY not set, video rooms disabled")
	}

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier appointments.Notifier
	if emailSender != nil {
		notifier = notify.NewService(emailSender, logger)
	}

	// Repositories
	availabilityRepo := availability.NewRepository(pool)
	catalogRepo := appointmenttypes.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)

	catalogCache := appointmenttypes.NewCache(redisClient, catalogRepo, cfg.ConfigCacheTTL, logger)

	calculator := availability.NewCalculator(availabilityRepo, appointmentsRepo, logger)
	scheduler := appointments.NewScheduler(
		appointmentsRepo,
		catalogRepo,
		roomProvider,
		notifier,
		bookingMetrics,
		appointments.SchedulerConfig{
			RoomTTLMargin: cfg.RoomTTLMargin,
			RoomLanguage:  cfg.RoomLanguage,
		},
		logger,
	)
	accessIssuer := appointments.NewAccessIssuer(appointmentsRepo, roomProvider, logger)

	// Handlers
	availabilityHandler := availability.NewHandler(availabilityRepo, calculator, logger)
	catalogHandler := appointmenttypes.NewHandler(catalogRepo, catalogCache, logger)
	appointmentsHandler := appointments.NewHandler(scheduler, appointmentsRepo, accessIssuer, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availabilityHandler,
		CatalogHandler:      catalogHandler,
		AppointmentsHandler: appointmentsHandler,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.RoomSweepEnabled && roomClient != nil {
		sweeper := rooms.NewSweeper(roomClient, cfg.RoomSweepEvery, logger)
		go sweeper.Run(sweepCtx)
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
