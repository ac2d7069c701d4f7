package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/careerforge/cvmatch/internal/adapters/http"
	"github.com/careerforge/cvmatch/internal/bootstrap"
	"github.com/careerforge/cvmatch/internal/config"
	"github.com/careerforge/cvmatch/internal/observability/logging"
	"github.com/careerforge/cvmatch/internal/observability/metrics"
)

const serviceName = "cvmatch-api"

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

	apiMetrics := metrics.NewAPIMetrics(serviceName)
	router := httpadapter.NewRouter(
		httpadapter.RouterConfig{
			Service:        serviceName,
			DefaultTopK:    cfg.MatchTopKDefault,
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
		},
		app.IngestUC,
		app.ReadUC,
		app.DeleteUC,
		app.MatchUC,
		app.Queue,
		app.Report,
		apiMetrics,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", apiMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
