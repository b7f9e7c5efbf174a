package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paperstack/intake/internal/bootstrap"
	"github.com/paperstack/intake/internal/config"
	"github.com/paperstack/intake/internal/observability/logging"
	"github.com/paperstack/intake/internal/observability/metrics"
)

const workerService = "intake-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger(workerService, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.QueueDisabled {
		log.Fatalf("queue is disabled, worker has nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(workerService)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	processTimeout := time.Duration(cfg.ProcessTimeoutSeconds) * time.Second

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeProcessRequested(ctx, func(handlerCtx context.Context, documentID int64) error {
		if doc, err := app.Store.GetByID(handlerCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag(workerService, time.Since(doc.UploadedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		start := time.Now()
		workerMetrics.StartDocument()
		processErr := app.ProcessUC.Process(processCtx, documentID)
		workerMetrics.FinishDocument(workerService, time.Since(start), processErr)

		if processErr == nil {
			if doc, err := app.Store.GetByID(handlerCtx, documentID); err == nil {
				workerMetrics.RecordAcquisitionMethod(workerService, doc.ExtractionMethod)
				workerMetrics.ObserveDocumentConfidence(workerService, doc.OCRConfidence)
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
