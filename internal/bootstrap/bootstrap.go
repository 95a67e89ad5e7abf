package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akryukov/doc-vectorizer/internal/config"
	"github.com/akryukov/doc-vectorizer/internal/core/vectorize"
	"github.com/akryukov/doc-vectorizer/internal/infrastructure/chunking"
	"github.com/akryukov/doc-vectorizer/internal/infrastructure/content/localfs"
	"github.com/akryukov/doc-vectorizer/internal/infrastructure/embedding/openai"
	"github.com/akryukov/doc-vectorizer/internal/infrastructure/repository/postgres"
	"github.com/akryukov/doc-vectorizer/internal/infrastructure/resilience"
	"github.com/akryukov/doc-vectorizer/internal/observability/logging"
	"github.com/akryukov/doc-vectorizer/internal/observability/metrics"
)

const serviceName = "doc-vectorizer"

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Service *vectorize.Service

	HTTPMetrics    *metrics.HTTPServerMetrics
	MetricsHandler http.Handler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := logging.NewJSONLogger(nil, serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Postgres may still be starting when the service comes up, so the
	// first ping goes through the retry executor. The breaker stays off
	// here: a single startup path has nothing to shed load from.
	executor := resilience.NewExecutor(resilience.Config{BreakerEnabled: false})
	err = executor.Execute(ctx, "postgres.connect", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}, func(error) resilience.Outcome {
		return resilience.Outcome{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := postgres.EnsureSchema(ctx, db, cfg.EmbeddingDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	files := postgres.NewFileRepository(db)
	docs := postgres.NewDocumentRepository(db)

	embedder, err := openai.New(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init embedding client: %w", err)
	}

	reader := localfs.NewReader()
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	taskMetrics := metrics.NewTaskMetrics(serviceName)
	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)

	queue := vectorize.NewQueue(
		vectorize.Config{
			MaxWorkers:  cfg.MaxWorkers,
			BatchSize:   cfg.EmbedBatchSize,
			StopTimeout: cfg.StopTimeout,
		},
		reader, chunker, embedder, files, docs, log,
	)
	queue.AddProgressCallback(taskMetrics.ProgressCallback(serviceName))

	svc := vectorize.NewService(queue, files, docs, log)

	metricsHandler := promhttp.HandlerFor(prometheus.Gatherers{
		taskMetrics.Registry(),
		httpMetrics.Registry(),
	}, promhttp.HandlerOpts{})

	return &App{
		Config:         cfg,
		Log:            log,
		Service:        svc,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: metricsHandler,

		closeFn: func() {
			svc.Stop()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
