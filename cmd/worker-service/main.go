package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OscarAspelin95/dx-go/internal/config"
	"github.com/OscarAspelin95/dx-go/internal/fastq"
	"github.com/OscarAspelin95/dx-go/internal/worker"
	"github.com/OscarAspelin95/dx-go/internal/worker/storage"
	"github.com/OscarAspelin95/dx-go/shared/logger"
	"github.com/OscarAspelin95/dx-go/shared/natsjs"
	"github.com/OscarAspelin95/dx-go/shared/objectstore"
	"github.com/OscarAspelin95/dx-go/shared/postgresql"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Initialize NATS JetStream client
	natsClient, err := initNATS(&cfg.NATS, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize NATS: %w", err)
	}

	appLogger.Info("NATS connection established")

	// Initialize object store client
	storeClient, err := initObjectStore(&cfg.Minio, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	// Ensure stream, consumer and result bucket exist before pulling.
	// Idempotent and race-free against the API service doing the same.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	if err := natsClient.EnsureStream(startupCtx, natsjs.StreamTypeFileUpload); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}

	if err := storeClient.EnsureBucket(startupCtx, cfg.Worker.ResultBucket); err != nil {
		return fmt.Errorf("failed to ensure result bucket: %w", err)
	}

	consumer, err := natsClient.PullConsumer(startupCtx, natsjs.StreamTypeFileUpload)
	if err != nil {
		return fmt.Errorf("failed to get pull consumer: %w", err)
	}

	// Assemble the processing workflow
	processor := worker.NewProcessor(&worker.ProcessorConfig{
		Gateway:      storeClient,
		Transformer:  fastq.NewFilter(filterThresholds(&cfg.Filter), appLogger.Logger),
		Recorder:     storage.NewStorage(dbClient, appLogger.Logger),
		ResultBucket: cfg.Worker.ResultBucket,
		Logger:       appLogger.Logger,
	})

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:        appLogger.Logger,
		Consumer:      consumer,
		Processor:     processor,
		Metrics:       worker.NewMetrics(prometheus.DefaultRegisterer),
		Concurrency:   cfg.Worker.Concurrency,
		FetchWait:     cfg.Worker.FetchWait,
		NakBackoff:    cfg.Worker.NakBackoff,
		NakBackoffMax: cfg.Worker.NakBackoffMax,
	})

	// Expose health and metrics over HTTP
	metricsSrv := startMetricsServer(cfg, appLogger.Logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	// Cancel context to stop the pull loops; Start returns once every
	// in-flight message has been settled.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Metrics server shutdown failed",
			slog.Any("error", err),
		)
	}

	// Cleanup function to close all resources
	cleanup := func() {
		if dbClient != nil {
			dbClient.Close()
		}
		if natsClient != nil {
			natsClient.Close()
		}
	}
	cleanup()

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initNATS initializes the NATS JetStream client
func initNATS(cfg *config.NATSConfig, logger *slog.Logger) (*natsjs.Client, error) {
	natsConfig := &natsjs.Config{
		URL:           cfg.URL,
		RetryAttempts: cfg.RetryAttempts,
		RetryInterval: cfg.RetryInterval,
		DrainTimeout:  cfg.DrainTimeout,
	}

	return natsjs.NewClient(natsConfig, logger)
}

// initObjectStore initializes the object store client
func initObjectStore(cfg *config.MinioConfig, logger *slog.Logger) (*objectstore.Client, error) {
	storeConfig := &objectstore.Config{
		Endpoint:       cfg.Endpoint,
		PublicEndpoint: cfg.PublicEndpoint,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		UseSSL:         cfg.UseSSL,
	}

	return objectstore.NewClient(storeConfig, logger)
}

// filterThresholds maps filter configuration to transform thresholds
func filterThresholds(cfg *config.FilterConfig) fastq.Thresholds {
	return fastq.Thresholds{
		MinLen:        cfg.MinLen,
		MaxLen:        cfg.MaxLen,
		MinError:      cfg.MinError,
		MaxError:      cfg.MaxError,
		MinSoftmasked: cfg.MinSoftmasked,
		MaxSoftmasked: cfg.MaxSoftmasked,
		MinAmbiguous:  cfg.MinAmbiguous,
		MaxAmbiguous:  cfg.MaxAmbiguous,
	}
}

// startMetricsServer serves /health and /metrics for the worker process
func startMetricsServer(cfg *config.Config, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","service":%q}`, cfg.App.Name)
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("Starting metrics server",
			slog.String("address", addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed",
				slog.Any("error", err),
			)
		}
	}()

	return srv
}
