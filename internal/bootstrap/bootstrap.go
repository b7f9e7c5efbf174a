package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paperstack/intake/internal/config"
	"github.com/paperstack/intake/internal/core/ports"
	"github.com/paperstack/intake/internal/core/usecase"
	"github.com/paperstack/intake/internal/export"
	"github.com/paperstack/intake/internal/infrastructure/ocr"
	"github.com/paperstack/intake/internal/infrastructure/queue/nats"
	"github.com/paperstack/intake/internal/infrastructure/repository/postgres"
	"github.com/paperstack/intake/internal/infrastructure/resilience"
	"github.com/paperstack/intake/internal/infrastructure/storage/localfs"
	"github.com/paperstack/intake/internal/infrastructure/textacquire"
)

// App wires infrastructure into the use cases both binaries share.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Store ports.DocumentStore

	SubmitUC  ports.DocumentSubmitter
	ProcessUC ports.DocumentProcessor
	Reader    ports.DocumentReader
	StatsUC   ports.StatsProvider
	Exporter  *export.Service

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	// A nil queue keeps processing inline in the api binary; useful for
	// single-process deployments and tests.
	var queue ports.MessageQueue
	var natsQueue *nats.Queue
	if !cfg.QueueDisabled {
		natsQueue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = natsQueue
	}

	engine := ocr.Autodetect(ocr.TesseractConfig{Binary: cfg.OCRBinary}, nil)
	if engine.Name() == ocr.EngineUnavailable {
		logger.Warn("ocr binary not found, scanned documents will complete without text",
			"binary", cfg.OCRBinary)
	}
	rasterizer := ocr.NewRasterizer(ocr.RasterConfig{
		DPI:      cfg.OCRDPI,
		MaxPages: cfg.OCRMaxPages,
	}, nil)

	acquirer := textacquire.NewAcquirer(
		textacquire.PDFTextExtractor{},
		engine,
		rasterizer,
		textacquire.Config{
			Language:         cfg.OCRLanguage,
			MinEmbeddedChars: cfg.PDFTextMinChars,
		},
		logger,
	)

	processUC := usecase.NewProcessDocumentUseCase(repo, storage, acquirer, logger)
	submitUC := usecase.NewSubmitDocumentUseCase(repo, storage, queue, processUC, usecase.SubmitConfig{
		AllowedExtensions: cfg.AllowedExtensionList(),
		MaxSizeBytes:      cfg.MaxFileSizeBytes,
	})

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Store: repo,

		SubmitUC:  submitUC,
		ProcessUC: processUC,
		Reader:    repo,
		StatsUC:   usecase.NewStatsUseCase(repo),
		Exporter:  export.NewService(repo, logger),

		closeFn: func() {
			if natsQueue != nil {
				natsQueue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
