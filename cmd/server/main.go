package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/config"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	stayEvents "github.com/Kilat-Pet-Delivery/service-stay/internal/events"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/health"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/logger"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/store/memory"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "service-stay"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewWithOptions(cfg.AppEnv, serviceName, logger.Options{FilePath: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
	)

	// Open the store
	tx, db := openStore(cfg, log)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	var publisher kafka.Publisher = kafka.NopPublisher{}
	if cfg.KafkaConfig.Enabled() {
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		log.Warn("no kafka brokers configured; domain events are dropped")
	}

	// Initialize application services
	policy := bookingDomain.OverlapPolicy{IgnoreCancelled: cfg.Policy.IgnoreCancelledInOverlap}
	propertyService := application.NewPropertyService(tx, cfg.Policy.BlockDeleteWithBookings, publisher, log)
	bookingService := application.NewBookingService(tx, policy, publisher, log)
	paymentService := application.NewPaymentService(tx, publisher, log)
	reviewService := application.NewReviewService(tx, publisher, log)

	// Start the payment gateway consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.KafkaConfig.Enabled() {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		gatewayConsumer := stayEvents.NewGatewayEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			paymentService,
			log,
		)
		defer func() { _ = gatewayConsumer.Close() }()

		go func() {
			log.Info("starting payment gateway consumer")
			if err := gatewayConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("payment gateway consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewPropertyHandler(propertyService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

// openStore returns the unit-of-work boundary for the configured driver. The
// *gorm.DB is nil for the in-memory store.
func openStore(cfg *config.ServiceConfig, log *zap.Logger) (uow.Transactor, *gorm.DB) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Info("using in-memory store")
		return memory.New(), nil
	}

	db, err := database.Connect(cfg.DBConfig.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), repository.MigrationsFS, repository.MigrationsDir, log)
		if err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	return repository.NewGormTransactor(db), db
}
