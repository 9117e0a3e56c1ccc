package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/config"
	"github.com/fekuna/omnipos-fleet-simulator/internal/auth"
	"github.com/fekuna/omnipos-fleet-simulator/internal/event"
	eventPubPkg "github.com/fekuna/omnipos-fleet-simulator/internal/event/publisher"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/migrations"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/broker"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/cache"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/database/postgres"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/search"

	assignUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/assignment/usecase"

	fleetH "github.com/fekuna/omnipos-fleet-simulator/internal/fleet/handler"
	fleetListenerPkg "github.com/fekuna/omnipos-fleet-simulator/internal/fleet/listener"

	invLockerPkg "github.com/fekuna/omnipos-fleet-simulator/internal/inventory/locker"
	invUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/inventory/usecase"

	prodRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/product/usecase"

	robotRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/robot/repository"
	robotUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/robot/usecase"

	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/machine"
	tripRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/trip/repository"
	tripSchedulerPkg "github.com/fekuna/omnipos-fleet-simulator/internal/trip/scheduler"
	tripUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/trip/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Event bus, optionally mirrored to Kafka
	bus := event.NewBus(appLogger)
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()

		kafkaPublisher := eventPubPkg.NewKafkaPublisher(producer, cfg.Kafka.EventBuffer, appLogger)
		bus.AddSink(kafkaPublisher)
		go kafkaPublisher.Start(ctx)
		appLogger.Info("Publishing events to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.EventsTopic))
	}

	// 4. Initialize Repositories
	var (
		prodRepo product.Repository
		tripRepo trip.Repository
	)
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		if err := migrations.Apply(ctx, db); err != nil {
			appLogger.Fatal("Failed to migrate database schema", zap.Error(err))
		}

		prodRepo = prodRepoPkg.NewPGRepository(db)
		tripRepo = tripRepoPkg.NewPGRepository(db)
	case "memory":
		prodRepo = prodRepoPkg.NewMemoryRepository()
		tripRepo = tripRepoPkg.NewMemoryRepository()
		appLogger.Warn("Using in-memory store, data is lost on exit")
	default:
		appLogger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	robotRepo := robotRepoPkg.NewMemoryRepository()

	// 5. Trip index on Elasticsearch
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// Trips are still stored; only the index is skipped.
			appLogger.Warn("Could not connect to Elasticsearch, trip index disabled", zap.Error(err))
		} else {
			esRepo := tripRepoPkg.NewElasticRepository(tripRepo, esClient, appLogger)
			if err := esRepo.EnsureIndex(ctx); err != nil {
				appLogger.Warn("Could not create trip index", zap.Error(err))
			}
			tripRepo = esRepo
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Pick lock
	var pickLocker inventory.Locker = invLockerPkg.NewLocal()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		pickLocker = invLockerPkg.NewRedis(redisClient, cfg.Redis.LockTTL, appLogger)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 7. Initialize UseCases
	routes := route.NewMap()
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, bus, appLogger)
	robotUC := robotUCPkg.NewRobotUseCase(robotRepo, bus, appLogger)
	ledgerUC := invUCPkg.NewLedgerUseCase(prodRepo, robotRepo, pickLocker, appLogger)
	assignUC := assignUCPkg.NewAssignmentUseCase(ledgerUC, robotRepo, bus, appLogger)
	tripUC := tripUCPkg.NewTripUseCase(robotRepo, ledgerUC, tripRepo, routes, bus, machine.Config{
		StepSize:  cfg.Simulation.StepSize,
		Tolerance: cfg.Simulation.Tolerance,
	}, appLogger)

	if cfg.Simulation.SeedProducts {
		if err := prodUC.EnsureSampleProducts(ctx); err != nil {
			appLogger.Fatal("Could not seed products", zap.Error(err))
		}
	}
	for i := 0; i < cfg.Simulation.InitialRobots; i++ {
		robotUC.AddRobot(ctx)
	}

	// 8. Start scheduler and listeners
	scheduler := tripSchedulerPkg.NewScheduler(tripUC, cfg.Simulation.TickInterval, appLogger)
	go scheduler.Start(ctx)

	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.CommandsTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()

		cmdListener := fleetListenerPkg.NewCommandListener(kafkaConsumer, robotUC, assignUC, tripUC, appLogger)
		go cmdListener.Start(ctx)
		appLogger.Info("Listening for Kafka commands", zap.String("topic", cfg.Kafka.CommandsTopic))
	}

	// 9. Initialize Handlers
	fleetHandler := fleetH.NewFleetHandler(robotUC, assignUC, tripUC, prodUC, ledgerUC, routes, bus, appLogger)
	httpHandler := fleetH.NewHTTPHandler(robotUC, tripUC, ledgerUC, routes, appLogger)

	// 10. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.ContextInterceptor()),
	)
	fleetH.RegisterFleetServer(grpcServer, fleetHandler)
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// 11. Start HTTP Server
	httpPort := cfg.Server.HTTPPort
	if !strings.HasPrefix(httpPort, ":") {
		httpPort = ":" + httpPort
	}
	app := httpHandler.App(fleetH.HTTPConfig{RateLimit: cfg.Server.HTTPRateLimit})

	appLogger.Info("Starting HTTP server", zap.String("port", httpPort))
	go func() {
		if err := app.Listen(httpPort); err != nil {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		appLogger.Warn("HTTP shutdown", zap.Error(err))
	}
	// Open WatchEvents streams never finish on their own.
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		grpcServer.Stop()
	}
	appLogger.Info("Server stopped")
}
