package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kontor-erp/kontor-erp/internal/accounts"
	"github.com/kontor-erp/kontor-erp/internal/app"
	"github.com/kontor-erp/kontor-erp/internal/documents"
	"github.com/kontor-erp/kontor-erp/internal/ledger"
	"github.com/kontor-erp/kontor-erp/internal/observability"
	"github.com/kontor-erp/kontor-erp/internal/payments"
	"github.com/kontor-erp/kontor-erp/internal/periods"
	"github.com/kontor-erp/kontor-erp/internal/platform/cache"
	"github.com/kontor-erp/kontor-erp/internal/platform/db"
	"github.com/kontor-erp/kontor-erp/internal/reports"
	"github.com/kontor-erp/kontor-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(pool)

	reportCache := reports.NewCache(redisClient, cfg.ReportSnapshotTTL)
	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, accountsRepo, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService, cfg.IsDevelopment())

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo)
	periodsHandler := periods.NewHandler(logger, periodsService, cfg.IsDevelopment())

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, cfg.IsDevelopment())

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, accountsRepo, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService, cfg.IsDevelopment())

	documentsRepo := documents.NewRepository(pool)
	documentsService := documents.NewService(documentsRepo, accountsRepo, logger).
		WithCacheBumper(reportCache).
		WithWarmupEnqueuer(warmupEnqueuer{client: jobsClient})
	documentsHandler := documents.NewHandler(logger, documentsService, paymentsHandler, cfg.IsDevelopment())

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		DocumentsHandler: documentsHandler,
		LedgerHandler:    ledgerHandler,
		PeriodsHandler:   periodsHandler,
		ReportsHandler:   reportsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// warmupEnqueuer adapts the jobs client to the documents service hook.
type warmupEnqueuer struct {
	client *jobs.Client
}

func (w warmupEnqueuer) EnqueueReportWarmup(ctx context.Context, orgID int64) error {
	_, err := w.client.EnqueueReportWarmup(ctx, jobs.ReportWarmupPayload{OrgID: orgID})
	return err
}
