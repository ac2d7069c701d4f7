package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careerforge/cvmatch/internal/bootstrap"
	"github.com/careerforge/cvmatch/internal/config"
	"github.com/careerforge/cvmatch/internal/observability/logging"
	"github.com/careerforge/cvmatch/internal/observability/metrics"
)

const serviceName = "cvmatch-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger(os.Stdout, serviceName, "info").Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	processTimeout := time.Duration(cfg.ProcessTimeoutSeconds) * time.Second
	if processTimeout <= 0 {
		processTimeout = 3 * time.Minute
	}

	logger.Info("worker_subscribed", "subject_prefix", cfg.NATSSubjectPrefix)
	err = app.Queue.SubscribeRecordEvents(ctx, func(handlerCtx context.Context, recordID string, reindex bool) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		if !reindex {
			if rec, err := app.Repo.GetByID(processCtx, recordID); err == nil {
				workerMetrics.ObserveQueueLag(serviceName, time.Since(rec.CreatedAt))
			}
		}

		workerMetrics.StartRecord()
		start := time.Now()

		var processErr error
		if reindex {
			processErr = app.ProcessUC.ReindexByID(processCtx, recordID)
		} else {
			processErr = app.ProcessUC.ProcessByID(processCtx, recordID)
		}

		workerMetrics.FinishRecord(serviceName, time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
