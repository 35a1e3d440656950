package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"lendledger/internal/api"
	"lendledger/internal/batch"
	"lendledger/internal/config"
	"lendledger/internal/domain/customer"
	"lendledger/internal/domain/dashboard"
	"lendledger/internal/domain/loan"
	"lendledger/internal/event"
	"lendledger/internal/infrastructure/cache"
	"lendledger/internal/infrastructure/database/postgres"
	"lendledger/internal/infrastructure/logging"
)

func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	summaryCache := initializeCache(cfg, logger)
	publisher, amqpConn := initializePublisher(cfg, logger)
	if amqpConn != nil {
		defer amqpConn.Close()
	}

	services, paymentRepo := initializeServices(dbPool, summaryCache, publisher, logger)

	sweepJob := batch.NewOverdueSweepJob(paymentRepo, invalidatorOrNil(summaryCache), logger)

	cronScheduler := startBatchJobs(cfg, logger, sweepJob)
	router := api.SetupRouter(services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// initializeCache returns nil when no Redis address is configured; the
// services treat a nil cache as a plain pass-through to the store.
func initializeCache(cfg *config.Config, logger *slog.Logger) *cache.SummaryCache {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, dashboard summaries will not be cached.")
		return nil
	}
	logger.Info("Initializing Redis summary cache...", "addr", cfg.Redis.Addr)
	client := cache.NewClient(cfg.Redis)
	return cache.NewSummaryCache(client, cfg.Redis, logger)
}

// initializePublisher falls back to a no-op publisher when no broker URL is
// configured. The returned connection is nil in that case.
func initializePublisher(cfg *config.Config, logger *slog.Logger) (event.Publisher, *amqp.Connection) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RabbitMQ not configured, entity change events disabled.")
		return event.NoopPublisher{}, nil
	}

	logger.Info("Connecting to RabbitMQ...")
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without events", "error", err)
		return event.NoopPublisher{}, nil
	}

	publisher, err := event.NewRabbitMQPublisher(conn, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		logger.Error("Failed to initialize RabbitMQ publisher, continuing without events", "error", err)
		conn.Close()
		return event.NoopPublisher{}, nil
	}
	return publisher, conn
}

func initializeServices(
	dbPool *pgxpool.Pool,
	summaryCache *cache.SummaryCache,
	publisher event.Publisher,
	logger *slog.Logger,
) (api.Services, loan.PaymentRepository) {
	logger.Info("Initializing application components...")

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	paymentRepo := postgres.NewPaymentRepository(dbPool, logger)

	invalidator := invalidatorOrNil(summaryCache)

	customerService := customer.NewService(customerRepo, publisher, invalidator, logger)
	loanService := loan.NewService(loanRepo, paymentRepo, customerService, publisher, invalidator, logger)
	paymentService := loan.NewPaymentService(paymentRepo, loanRepo, publisher, invalidator, logger)

	var dashCache dashboard.SummaryCache
	if summaryCache != nil {
		dashCache = summaryCache
	}
	dashboardService := dashboard.NewService(loanRepo, paymentRepo, dashCache, logger)

	return api.Services{
		Customers: customerService,
		Loans:     loanService,
		Payments:  paymentService,
		Dashboard: dashboardService,
	}, paymentRepo
}

// invalidatorOrNil keeps a typed-nil *cache.SummaryCache from leaking into the
// services' interface fields.
func invalidatorOrNil(c *cache.SummaryCache) batch.SummaryInvalidator {
	if c == nil {
		return nil
	}
	return c
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, sweepJob *batch.OverdueSweepJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.OverdueSweepSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 2 * * *"
		logger.Warn("Overdue sweep schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.OverdueSweepTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "OverdueSweep")
		jobLogger.Info("Cron triggered: Running overdue payment sweep.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := sweepJob.Run(ctx); runErr != nil {
			jobLogger.Error("Overdue payment sweep finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Overdue payment sweep finished successfully.")
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule overdue payment sweep", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled overdue payment sweep", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
