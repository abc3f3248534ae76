package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swiftbus/service-reservation/internal/application"
	"github.com/swiftbus/service-reservation/internal/config"
	reservationEvents "github.com/swiftbus/service-reservation/internal/events"
	"github.com/swiftbus/service-reservation/internal/handler"
	"github.com/swiftbus/service-reservation/internal/repository"
	"github.com/swiftbus/service-reservation/pkg/auth"
	"github.com/swiftbus/service-reservation/pkg/database"
	"github.com/swiftbus/service-reservation/pkg/health"
	"github.com/swiftbus/service-reservation/pkg/kafka"
	"github.com/swiftbus/service-reservation/pkg/logger"
	"github.com/swiftbus/service-reservation/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations. Auto-migrate cannot express the partial
	// unique index that backs the seat ledger, so SQL migrations run in
	// every environment.
	dbURL := dbConfig.DatabaseURL()
	if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories and the seat ledger
	bookingRepo := repository.NewGormBookingRepository(db)
	busRepo := repository.NewGormBusRepository(db)
	transactionRepo := repository.NewGormTransactionRepository(db)
	seatLedger := repository.NewGormSeatLedger(db)
	settlementStore := repository.NewGormSettlementStore(db)

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, busRepo, seatLedger, kafkaProducer, log)
	settlementService := application.NewSettlementService(bookingRepo, transactionRepo, settlementStore, kafkaProducer, log)
	availabilityService := application.NewAvailabilityService(busRepo, seatLedger, log)
	fleetService := application.NewFleetService(busRepo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the payment event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	paymentConsumer := reservationEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		settlementService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Start the hold expiry sweeper in a goroutine
	sweeper := application.NewHoldExpirySweeper(bookingRepo, seatLedger, kafkaProducer, cfg.HoldTTL, log)
	go func() {
		if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
			log.Error("hold expiry sweeper error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, settlementService)
	busHandler := handler.NewBusHandler(fleetService, availabilityService)
	adminHandler := handler.NewAdminHandler(bookingService, settlementService, fleetService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-reservation")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	busHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

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

	log.Info("shutting down service-reservation...")

	// Cancel the consumer and sweeper contexts
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
