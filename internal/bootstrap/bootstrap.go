// Package bootstrap wires configuration into the concrete dependency graph
// shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/careerforge/cvmatch/internal/config"
	"github.com/careerforge/cvmatch/internal/core/ports"
	"github.com/careerforge/cvmatch/internal/core/usecase"
	"github.com/careerforge/cvmatch/internal/infrastructure/extractor/document"
	"github.com/careerforge/cvmatch/internal/infrastructure/llm/gemini"
	"github.com/careerforge/cvmatch/internal/infrastructure/llm/ollama"
	"github.com/careerforge/cvmatch/internal/infrastructure/llm/parser"
	"github.com/careerforge/cvmatch/internal/infrastructure/queue/nats"
	"github.com/careerforge/cvmatch/internal/infrastructure/report"
	"github.com/careerforge/cvmatch/internal/infrastructure/repository/postgres"
	"github.com/careerforge/cvmatch/internal/infrastructure/resilience"
	"github.com/careerforge/cvmatch/internal/infrastructure/storage/localfs"
	"github.com/careerforge/cvmatch/internal/infrastructure/vector/inmemory"
	"github.com/careerforge/cvmatch/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Repo  ports.RecordRepository

	IngestUC  ports.RecordIngestor
	ProcessUC ports.RecordProcessor
	MatchUC   ports.RecordMatcher
	ReadUC    ports.RecordReader
	DeleteUC  ports.RecordDeleter

	Report ports.MatchReportWriter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	executor := resilience.NewExecutor(policyFromConfig(cfg), logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewRecordRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	generator, embedder, err := newModelClients(ctx, cfg, executor)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	var index ports.VectorIndex
	switch cfg.VectorBackend {
	case config.VectorBackendMemory:
		index = inmemory.New()
	default:
		index = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor)
	}

	extractor := document.NewExtractor(storage, logger)
	recordParser := parser.New(generator, logger)

	ingestUC := usecase.NewIngestRecordUseCase(repo, storage, queue)
	processUC := usecase.NewProcessRecordUseCase(repo, extractor, recordParser, embedder, index)
	matchUC := usecase.NewMatchRecordsUseCase(repo, embedder, index)
	readUC := usecase.NewReadRecordUseCase(repo)
	deleteUC := usecase.NewDeleteRecordUseCase(repo, storage, index)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		MatchUC:   matchUC,
		ReadUC:    readUC,
		DeleteUC:  deleteUC,

		Report: report.NewXLSXWriter(),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// newModelClients picks the LLM backend. The ollama client serves both the
// generation and embedding contracts; so does gemini.
func newModelClients(ctx context.Context, cfg config.Config, executor *resilience.Executor) (parser.Generator, ports.Embedder, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:        cfg.GeminiAPIKey,
			GenModel:      cfg.GeminiGenModel,
			EmbedModel:    cfg.GeminiEmbedModel,
			EmbedDim:      int32(cfg.GeminiEmbedDim),
			EmbedMaxRunes: cfg.EmbedMaxRunes,
		}, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini client: %w", err)
		}
		return client, client, nil
	default:
		client := ollama.New(ollama.Config{
			BaseURL:       cfg.OllamaURL,
			GenModel:      cfg.OllamaGenModel,
			EmbedModel:    cfg.OllamaEmbedModel,
			EmbedMaxRunes: cfg.EmbedMaxRunes,
		}, executor)
		return client, client, nil
	}
}

func policyFromConfig(cfg config.Config) resilience.Policy {
	return resilience.Policy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialBackoff: time.Duration(cfg.RetryInitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.RetryMaxBackoffMs) * time.Millisecond,

		BreakerEnabled:      !cfg.BreakerDisabled,
		BreakerMinRequests:  uint32(cfg.BreakerMinimumRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.BreakerOpenTimeoutSec) * time.Second,
		BreakerHalfOpenMax:  uint32(cfg.BreakerHalfOpenMaxCalls),
	}
}
