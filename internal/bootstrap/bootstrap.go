package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/config"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/tasks"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/usecase"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/ocr/vision"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/pdf/raster"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/pdf/textlayer"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/queue/nats"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/resilience"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/storage"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/storage/gcs"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/storage/s3store"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/workerpool"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Store    ports.ObjectStore
	Registry *tasks.Registry
	Pool     *workerpool.Pool
	Metrics  *metrics.PipelineMetrics
	// Queue is nil when NATS_URL is empty.
	Queue *nats.Queue

	ProcessUC *usecase.ProcessDocumentUseCase
	AsyncUC   *usecase.AsyncProcessUseCase
	BatchUC   *usecase.BatchUseCase
	StatsUC   *usecase.FolderStatsUseCase
	History   ports.ExtractionHistory
	// QueuedUC is nil when Queue is nil.
	QueuedUC *usecase.QueuedExtractionUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pipelineMetrics := metrics.NewPipelineMetrics("ocr")

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, closeStore, err := NewObjectStore(ctx, cfg, pipelineMetrics.ObserveBreaker)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	pages, closePipeline, err := NewExtractionPipeline(ctx, cfg, pipelineMetrics)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, closePipeline)

	var (
		extractionLog ports.ExtractionLog
		history       ports.ExtractionHistory = emptyHistory{}
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })

		repo := postgres.NewExtractionLogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		extractionLog = repo
		history = repo
	} else {
		slog.Info("extraction_log_disabled")
	}

	var (
		queue    *nats.Queue
		notifier ports.ExtractionNotifier
	)
	if cfg.NATSURL != "" {
		queue, err = NewQueue(cfg, pipelineMetrics.ObserveBreaker)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, queue.Close)
		notifier = queue
	} else {
		slog.Info("message_queue_disabled")
	}

	registry := tasks.NewRegistry(tasks.WithResultTTL(cfg.TaskResultTTL))
	pool := workerpool.New(
		workerpool.WithWorkers(cfg.MaxWorkers),
		workerpool.WithQueueSize(cfg.WorkerQueueSize),
		workerpool.WithObserver(pipelineMetrics),
	)

	processUC := usecase.NewProcessDocumentUseCase(store, pages, extractionLog, notifier, cfg.WorkDir)
	processUC.SetObserver(pipelineMetrics)

	app := &App{
		Config: cfg,

		Store:    store,
		Registry: registry,
		Pool:     pool,
		Metrics:  pipelineMetrics,
		Queue:    queue,

		ProcessUC: processUC,
		AsyncUC:   usecase.NewAsyncProcessUseCase(store, processUC, registry, pool),
		BatchUC:   usecase.NewBatchUseCase(store, processUC),
		StatsUC:   usecase.NewFolderStatsUseCase(store),
		History:   history,

		closeFn: closeAll,
	}
	if queue != nil {
		app.QueuedUC = usecase.NewQueuedExtractionUseCase(queue, processUC)
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// NewObjectStore opens the configured backend behind a circuit breaker.
func NewObjectStore(ctx context.Context, cfg config.Config, observer resilience.StateObserver) (ports.ObjectStore, func(), error) {
	var (
		backend ports.ObjectStore
		closeFn = func() {}
	)
	switch cfg.StorageBackend {
	case config.StorageBackendLocalFS, "":
		fs, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init object storage: %w", err)
		}
		backend = fs
	case config.StorageBackendGCS:
		gs, err := gcs.New(ctx, cfg.GCPCredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("init object storage: %w", err)
		}
		backend = gs
		closeFn = func() { _ = gs.Close() }
	case config.StorageBackendS3:
		s3, err := s3store.New(ctx, s3store.Options{
			Region:       cfg.AWSRegion,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init object storage: %w", err)
		}
		backend = s3
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	policy := resilience.BreakerOnlyConfig()
	policy.BreakerEnabled = cfg.StorageBreakerEnabled
	var opts []resilience.Option
	if observer != nil {
		opts = append(opts, resilience.WithStateObserver(observer))
	}
	executor := resilience.NewExecutor(policy, opts...)

	slog.Info("object_storage_ready", "backend", cfg.StorageBackend, "breaker", cfg.StorageBreakerEnabled)
	return storage.NewResilientStore(backend, executor), closeFn, nil
}

// NewExtractionPipeline builds the page extractor chain and the assembler on
// top of it. The observer may be nil.
func NewExtractionPipeline(ctx context.Context, cfg config.Config, observer usecase.PageObserver) (*usecase.DocumentAssembler, func(), error) {
	var (
		engine  ports.OCREngine
		closeFn = func() {}
	)
	switch cfg.OCREngine {
	case config.OCREngineTesseract, "":
		engine = tesseract.New(cfg.TessdataPrefix)
	case config.OCREngineVision:
		v, err := vision.New(ctx, cfg.GCPCredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("init ocr engine: %w", err)
		}
		engine = v
		closeFn = func() { _ = v.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown ocr engine %q", cfg.OCREngine)
	}

	textLayer := textlayer.New()
	pageExtractor := usecase.NewPageExtractor(raster.New(), engine, textLayer, usecase.PageExtractorConfig{
		Language:    cfg.OCRLanguage,
		RasterWidth: cfg.RasterWidth,
		Recognition: domain.RecognitionConfig{
			EngineMode:    cfg.OCREngineMode,
			PageSegMode:   cfg.OCRPageSegMode,
			CharWhitelist: domain.OCRCharWhitelist,
		},
		ReclaimMemory: cfg.ReclaimMemoryPerPage,
	})
	if observer != nil {
		pageExtractor.SetObserver(observer)
	}
	return usecase.NewDocumentAssembler(pageExtractor, textLayer), closeFn, nil
}

// NewQueue connects to NATS. Publishes get one attempt behind a breaker. The
// observer may be nil.
func NewQueue(cfg config.Config, observer resilience.StateObserver) (*nats.Queue, error) {
	if cfg.NATSURL == "" {
		return nil, errors.New("NATS_URL is not set")
	}
	var opts []resilience.Option
	if observer != nil {
		opts = append(opts, resilience.WithStateObserver(observer))
	}
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		EventsSubject:      cfg.NATSEventsSubject,
		ResilienceExecutor: resilience.NewExecutor(queuePolicy(), opts...),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}

// queuePolicy never retries: a request published twice would be extracted twice.
func queuePolicy() resilience.Config {
	return resilience.BreakerOnlyConfig()
}

type emptyHistory struct{}

func (emptyHistory) ListByGroup(context.Context, string, int) ([]domain.ExtractionRecord, error) {
	return []domain.ExtractionRecord{}, nil
}
