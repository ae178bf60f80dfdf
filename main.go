package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/kendall-kelly/shg-marketplace-api/config"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/routes"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting SHG Marketplace API server...", zap.String("env", cfg.GoEnv))

	shutdownTracing, err := middleware.InitTracing("shg-marketplace-api", cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migration completed successfully")

	var (
		redisClient *redis.Client
		cache       services.OpenOrderCache
	)
	if cfg.CacheEnabled() {
		redisClient, err = services.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			// the browse view still works straight from the database
			logger.Warn("Redis unavailable, open order cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			cache = services.NewRedisOpenOrderCache(redisClient, cfg.OpenOrderCacheTTL)
			logger.Info("Open order cache enabled", zap.Duration("ttl", cfg.OpenOrderCacheTTL))
		}
	}

	var (
		producer sarama.SyncProducer
		sinks    []services.Sink
	)
	if cfg.KafkaEnabled() {
		producer, err = services.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Warn("Kafka unavailable, notifications stay in-app only", zap.Error(err))
			producer = nil
		} else {
			sinks = append(sinks, services.Sink{
				Name:     "kafka",
				Notifier: services.NewKafkaNotifier(producer, cfg.KafkaNotificationTopic, logger),
			})
			logger.Info("Publishing notifications to Kafka", zap.String("topic", cfg.KafkaNotificationTopic))
		}
	}

	router := routes.Setup(routes.Deps{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Auth:   middleware.EnsureValidToken(cfg, logger),
		Cache:  cache,
		Sinks:  sinks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	gracefulShutdown(srv, db, redisClient, producer, shutdownTracing, logger)
}

// newLogger builds a production logger outside development, honouring LOG_LEVEL
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// gracefulShutdown waits for SIGINT/SIGTERM, then drains the server and closes every dependency
func gracefulShutdown(
	srv *http.Server,
	db *gorm.DB,
	redisClient *redis.Client,
	producer sarama.SyncProducer,
	shutdownTracing func(),
	logger *zap.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received. Exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	if err := config.CloseDatabase(db); err != nil {
		logger.Error("Failed to close database", zap.Error(err))
	}

	shutdownTracing()
	logger.Info("Server exited")
}
