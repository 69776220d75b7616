package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/config"
	amqpdelivery "github.com/lingopipe/lingopipe/internal/delivery/amqp"
	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/notifier"
	"github.com/lingopipe/lingopipe/internal/pool"
	"github.com/lingopipe/lingopipe/internal/repository/postgres"
	redisrepo "github.com/lingopipe/lingopipe/internal/repository/redis"
	"github.com/lingopipe/lingopipe/internal/translator"
	"github.com/lingopipe/lingopipe/internal/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting LingoPipe Translation Worker")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
	dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	if err := dbPool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping PostgreSQL", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL")

	// Connect to Redis
	redisOpts, err := goredis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Invalid Redis URL", zap.Error(err))
	}
	redisClient := goredis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Initialize repositories
	jobRepo := postgres.NewJobRepository(dbPool)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)

	// Initialize the translation backend adapter
	backend := translator.NewClient(
		cfg.Backend.URL,
		cfg.Backend.APIKey,
		cfg.Backend.Model,
		cfg.Backend.MaxTokens,
		&http.Client{Timeout: cfg.Backend.RequestTimeout},
		logger,
	)

	// Notification sender on a dedicated AMQP channel (optional)
	var notify notifier.Notifier
	notifyConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Warn("Notifications disabled: AMQP dial failed", zap.Error(err))
	} else {
		defer notifyConn.Close()
		notifyCh, err := notifyConn.Channel()
		if err != nil {
			logger.Warn("Notifications disabled: channel open failed", zap.Error(err))
		} else if notify, err = notifier.NewAMQPNotifier(notifyCh, logger); err != nil {
			logger.Warn("Notifications disabled", zap.Error(err))
			notify = nil
		}
	}

	// Initialize use case
	retry := usecase.RetryPolicy{
		MaxAttempts: cfg.Backend.MaxAttempts,
		BaseDelay:   cfg.Backend.RetryBaseDelay,
		MaxDelay:    cfg.Backend.RetryMaxDelay,
	}
	processUC := usecase.NewProcessJobUsecase(
		jobRepo, idempotencyStore, backend, notify, cfg.Worker.FanOutLimit, retry, logger)

	// Create buffered job channel
	jobsChan := make(chan *domain.JobMessage, cfg.Worker.PoolSize*2)

	// Initialize AMQP consumer
	consumer, err := amqpdelivery.NewConsumer(cfg.RabbitMQ.URL, jobsChan, logger)
	if err != nil {
		logger.Fatal("Failed to initialize AMQP consumer", zap.Error(err))
	}
	defer consumer.Close()
	logger.Info("Connected to RabbitMQ")

	// Start worker pool
	workerPool := pool.NewWorkerPool(cfg.Worker.PoolSize, jobsChan, processUC, cfg.Worker.JobTimeout, logger)
	workerPool.Start(ctx)

	// Start AMQP consumer in a goroutine. If it terminates outside a
	// shutdown the process exits so the orchestrator restarts it, instead
	// of idling with nothing to consume.
	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Start(ctx)
	}()

	// Start Prometheus metrics server
	go func() {
		metricsAddr := fmt.Sprintf(":%d", cfg.Worker.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics server listening", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal or consumer termination
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	consumerFailed := false
	select {
	case <-quit:
		logger.Info("Shutting down worker...")
	case err := <-consumerDone:
		if ctx.Err() == nil {
			logger.Error("AMQP consumer terminated unexpectedly", zap.Error(err))
			consumerFailed = true
		}
	}
	cancel()

	// Wait for workers to finish in-flight jobs
	workerPool.Stop()

	logger.Info("Worker stopped")
	if consumerFailed {
		os.Exit(1)
	}
}
