package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestorzap/campaign-engine/internal/config"
	"github.com/gestorzap/campaign-engine/internal/db"
	"github.com/gestorzap/campaign-engine/internal/engine"
	"github.com/gestorzap/campaign-engine/internal/gateway"
	"github.com/gestorzap/campaign-engine/internal/handler"
	"github.com/gestorzap/campaign-engine/internal/lock"
	"github.com/gestorzap/campaign-engine/internal/metrics"
	"github.com/gestorzap/campaign-engine/internal/repository"
	"github.com/gestorzap/campaign-engine/internal/service"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting campaign engine API server")

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

	// Initialize services
	templateSvc := service.NewTemplateService()
	resolverSvc := service.NewResolverService(clientRepo, logger)
	campaignSvc := service.NewCampaignService(
		campaignRepo,
		deliveryRepo,
		clientRepo,
		resolverSvc,
		templateSvc,
		logger,
	)
	statusSvc := service.NewStatusService(campaignRepo, deliveryRepo)
	receiptSvc := service.NewReceiptService(deliveryRepo, logger)

	// Initialize dispatcher
	dispatcher := engine.New(
		campaignRepo,
		deliveryRepo,
		clientRepo,
		gatewayClient,
		templateSvc,
		campaignLock,
		engine.Config{
			BatchSize:   cfg.Dispatcher.BatchSize,
			CountryCode: cfg.Gateway.CountryCode,
		},
		logger,
	)

	// Initialize handlers
	campaignHandler := handler.NewCampaignHandler(campaignSvc, statusSvc, dispatcher, logger)
	triggerHandler := handler.NewTriggerHandler(dispatcher, logger)
	webhookHandler := handler.NewWebhookHandler(receiptSvc, logger)
	healthHandler := handler.NewHealthHandler(database.DB, campaignLock, logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(handler.RecoveryMiddleware(logger))
	r.Use(handler.LoggingMiddleware(logger))
	r.Use(handler.CORSMiddleware)

	// Register routes
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/campaigns", campaignHandler.Routes)

	r.Route("/trigger", func(r chi.Router) {
		r.Use(handler.TriggerSecretMiddleware(cfg.API.TriggerSecret))
		r.Post("/run", triggerHandler.Run)
	})

	r.Post("/webhooks/receipts", webhookHandler.Receipt)

	// Create server
	addr := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", slog.String("addr", addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("server stopped gracefully")
	}
}
