package main

import (
	"alcyxob/gym-tracker/internal/api"
	"alcyxob/gym-tracker/internal/cache"
	"alcyxob/gym-tracker/internal/config"
	"alcyxob/gym-tracker/internal/logging"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/outbox"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/repository/memory"
	"alcyxob/gym-tracker/internal/repository/mongo"
	"alcyxob/gym-tracker/internal/service"
	"alcyxob/gym-tracker/internal/storage"
	"alcyxob/gym-tracker/internal/streak"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// stores groups the repositories of one backend.
type stores struct {
	users      repository.UserRepository
	workouts   repository.WorkoutRepository
	weights    repository.WeightRepository
	activities repository.ActivityRepository
	outbox     repository.OutboxRepository
	ping       api.Pinger
	close      func() error
}

// @title Gym Tracker API
// @version 1.0
// @description Workouts, body weight, cardio activities, streaks and badges.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	hostname, _ := os.Hostname()
	flushSentry := logging.Setup(logging.SetupParams{
		LogFileName:      cfg.Log.File,
		LogToStdout:      cfg.Log.Stdout,
		LogLevel:         cfg.Log.Level,
		LogFormatJSON:    cfg.Log.JSON,
		Environment:      cfg.Sentry.Environment,
		SentryDSN:        cfg.Sentry.DSN,
		SentryServerName: hostname,
	})
	defer flushSentry()
	log.Info("Starting Gym Tracker server...")

	loc, err := cfg.Streak.Location()
	if err != nil {
		log.Fatalf("FATAL: Invalid streak timezone: %v", err)
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("gymtracker", "server", registry)

	// --- Database ---
	db, err := openStores(cfg.Database)
	if err != nil {
		log.Fatalf("FATAL: Could not open %s store: %v", cfg.Database.Driver, err)
	}

	// --- Storage ---
	ctx := context.Background()
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Rate limiting ---
	pingers := map[string]api.Pinger{"database": db.ping}
	var rateLimiter api.RequestRateLimiter
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rateLimiter = redis_rate.NewLimiter(redisClient)
		pingers["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.WithField("addr", cfg.Redis.Addr).Info("redis rate limiter enabled")
	}

	// --- Event publishing ---
	var publisher outbox.Publisher
	var kafkaProducer *outbox.KafkaProducer
	if cfg.Kafka.Enabled() {
		kafkaProducer = outbox.NewKafkaProducer(cfg.Kafka.Brokers)
		publisher = kafkaProducer
		log.WithField("brokers", cfg.Kafka.Brokers).Info("kafka publishing enabled")
	}

	// --- Services ---
	dashboardCache := cache.NewDashboardCache(cfg.Cache.SizeMB, cfg.Cache.DashboardTTL)
	dashboardService := service.NewDashboardService(db.users, db.workouts, db.weights, db.activities, dashboardCache, loc)

	streakEngine := streak.NewEngine(db.users, db.workouts, loc,
		streak.WithMaxAttempts(cfg.Streak.MaxAttempts),
		streak.WithMetrics(metricsManager),
	)

	services := api.Services{
		Auth:  service.NewAuthService(db.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Users: service.NewUserService(db.users, dashboardService),
		Workouts: service.NewWorkoutService(db.workouts, db.outbox, streakEngine, dashboardService, metricsManager, service.WorkoutOptions{
			Mode:          service.StreakMode(cfg.Streak.Mode),
			PublishEvents: cfg.Kafka.Enabled(),
		}),
		Weights:    service.NewWeightService(db.weights, fileStorage, dashboardService, loc),
		Activities: service.NewActivityService(db.activities, dashboardService),
		Dashboard:  dashboardService,
	}

	dispatcher := outbox.NewDispatcher(db.outbox, streakEngine, publisher, outbox.Config{
		Topic:        cfg.Kafka.Topic,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		ClaimTimeout: cfg.Outbox.ClaimTimeout,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}, metricsManager)
	dispatcher.OnStreakUpdated(dashboardService.Invalidate)

	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	go dispatcher.Start(dispatcherCtx)

	// --- Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(metricsManager)

	api.SetupRoutes(router, services, api.RouterOptions{
		Metrics:         metricsManager,
		Gatherer:        registry,
		RateLimiter:     rateLimiter,
		WritesPerMinute: cfg.Redis.WritesPerMinute,
		Pingers:         pingers,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	err = server.Shutdown(ctxShutdown)
	stopDispatcher()
	dispatcher.Wait()

	if kafkaProducer != nil {
		err = multierr.Append(err, kafkaProducer.Close())
	}
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	err = multierr.Append(err, db.close())
	if err != nil {
		log.Errorf("shutdown: %v", err)
	}

	log.Info("Server exiting.")
}

func openStores(cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &stores{
			users:      store.Users(),
			workouts:   store.Workouts(),
			weights:    store.Weights(),
			activities: store.Activities(),
			outbox:     store.Outbox(),
			ping:       store.Ping,
			close:      func() error { return nil },
		}, nil
	}

	client, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return nil, err
	}
	appDB := client.Database(cfg.Name)

	// Weight uniqueness and the outbox claim query depend on these indexes.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
		return nil, multierr.Append(err, mongo.DisconnectDB(client))
	}
	log.WithField("database", cfg.Name).Info("Database connection established.")

	return &stores{
		users:      mongo.NewMongoUserRepository(appDB),
		workouts:   mongo.NewMongoWorkoutRepository(appDB),
		weights:    mongo.NewMongoWeightRepository(appDB),
		activities: mongo.NewMongoActivityRepository(appDB),
		outbox:     mongo.NewMongoOutboxRepository(appDB),
		ping:       mongo.Pinger(client),
		close:      func() error { return mongo.DisconnectDB(client) },
	}, nil
}
