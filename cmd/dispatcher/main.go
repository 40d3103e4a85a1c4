package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gestorzap/campaign-engine/internal/config"
	"github.com/gestorzap/campaign-engine/internal/db"
	"github.com/gestorzap/campaign-engine/internal/engine"
	"github.com/gestorzap/campaign-engine/internal/gateway"
	"github.com/gestorzap/campaign-engine/internal/lock"
	"github.com/gestorzap/campaign-engine/internal/repository"
	"github.com/gestorzap/campaign-engine/internal/service"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting campaign dispatcher")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Connect to database
	database, err := db.New(db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	logger.Info("connected to database")

	// Connect to Redis for campaign locks
	redisClient, err := lock.Connect(cfg.Redis.URL, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	logger.Info("connected to Redis")

	campaignLock := lock.New(redisClient, time.Duration(cfg.Dispatcher.LockTTLSeconds)*time.Second, logger)

	// Initialize repositories
	campaignRepo := repository.NewCampaignRepository(database.DB)
	deliveryRepo := repository.NewDeliveryRepository(database.DB)
	clientRepo := repository.NewClientRepository(database.DB)

	// Initialize gateway client
	gatewayClient := gateway.NewHTTPClient(gateway.HTTPConfig{
		BaseURL: cfg.Gateway.BaseURL,
		APIKey:  cfg.Gateway.APIKey,
	}, logger)

	// Initialize dispatcher
	dispatcher := engine.New(
		campaignRepo,
		deliveryRepo,
		clientRepo,
		gatewayClient,
		service.NewTemplateService(),
		campaignLock,
		engine.Config{
			BatchSize:   cfg.Dispatcher.BatchSize,
			CountryCode: cfg.Gateway.CountryCode,
		},
		logger,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tick := time.Duration(cfg.Dispatcher.TickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	logger.Info("dispatcher running",
		slog.Duration("tick", tick),
		slog.Int("batch_size", cfg.Dispatcher.BatchSize),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := dispatcher.RunDue(ctx); err != nil {
				logger.Error("dispatch tick failed", slog.String("error", err.Error()))
			}

		case sig := <-quit:
			logger.Info("shutting down dispatcher", slog.String("signal", sig.String()))
			cancel()
			logger.Info("dispatcher stopped gracefully")
			return
		}
	}
}
