package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/fields"
	"github.com/paperstack/intake/internal/core/ports"
)

// ProcessDocumentUseCase drives one document through text acquisition
// and field extraction, owning every status transition on the way.
// Attempts are serialized per document id: two workers can never race
// to write conflicting terminal states for the same document.
type ProcessDocumentUseCase struct {
	store     ports.DocumentStore
	storage   ports.ObjectStorage
	acquirer  ports.TextAcquirer
	extractor *fields.Extractor
	locks     *keyedMutex
	logger    *slog.Logger
}

func NewProcessDocumentUseCase(
	store ports.DocumentStore,
	storage ports.ObjectStorage,
	acquirer ports.TextAcquirer,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		store:     store,
		storage:   storage,
		acquirer:  acquirer,
		extractor: fields.NewExtractor(),
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// Process runs the pipeline for a pending or failed document.
func (uc *ProcessDocumentUseCase) Process(ctx context.Context, documentID int64) error {
	return uc.run(ctx, documentID, false)
}

// Reprocess runs the pipeline from any state, including completed and a
// stuck processing row; previous extracted data is replaced, not merged.
func (uc *ProcessDocumentUseCase) Reprocess(ctx context.Context, documentID int64) error {
	return uc.run(ctx, documentID, true)
}

func (uc *ProcessDocumentUseCase) run(ctx context.Context, documentID int64, force bool) error {
	uc.locks.Lock(documentID)
	defer uc.locks.Unlock(documentID)

	doc, err := uc.store.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if !force && doc.Status != domain.StatusPending && doc.Status != domain.StatusFailed {
		return fmt.Errorf("%w: document %d is %s; use reprocess", domain.ErrValidation, documentID, doc.Status)
	}

	if err := uc.markProcessing(ctx, documentID); err != nil {
		return err
	}

	start := time.Now()
	acquired, extraction, err := uc.pipeline(ctx, doc)
	if err != nil {
		return uc.markFailed(ctx, documentID, err)
	}

	if err := uc.markCompleted(ctx, documentID, acquired, extraction); err != nil {
		return uc.markFailed(ctx, documentID, err)
	}

	uc.logger.Info("document processed",
		"document_id", documentID,
		"method", acquired.Method,
		"pages", acquired.Pages,
		"extraction_confidence", extraction.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, doc *domain.Document) (domain.AcquiredText, domain.ExtractionResult, error) {
	reader, err := uc.storage.Open(ctx, doc.StoredName)
	if err != nil {
		return domain.AcquiredText{}, domain.ExtractionResult{}, domain.WrapError(domain.ErrAcquisition, "open stored document", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return domain.AcquiredText{}, domain.ExtractionResult{}, domain.WrapError(domain.ErrAcquisition, "read stored document", err)
	}

	acquired, err := uc.acquirer.Acquire(ctx, data, doc.ContentType)
	if err != nil {
		return domain.AcquiredText{}, domain.ExtractionResult{}, err
	}

	// Extraction is pure CPU and never fails; a text nothing matches
	// produces an all-null record with confidence 0.
	extraction := uc.extractor.Extract(acquired.Text)
	return acquired, extraction, nil
}

func (uc *ProcessDocumentUseCase) markProcessing(ctx context.Context, id int64) error {
	status := domain.StatusProcessing
	empty := ""
	clearProcessed := false
	err := uc.store.Update(ctx, id, ports.DocumentUpdate{
		Status:      &status,
		Error:       &empty,
		ProcessedAt: &clearProcessed,
	})
	if err != nil {
		return domain.WrapError(domain.ErrStore, "mark processing", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markCompleted(ctx context.Context, id int64, acquired domain.AcquiredText, extraction domain.ExtractionResult) error {
	status := domain.StatusCompleted
	confidence := acquired.Confidence / 100.0
	setProcessed := true
	fieldsCopy := extraction.Fields
	err := uc.store.Update(ctx, id, ports.DocumentUpdate{
		Status:      &status,
		RawText:     &acquired.Text,
		Method:      &acquired.Method,
		Confidence:  &confidence,
		Fields:      &fieldsCopy,
		ProcessedAt: &setProcessed,
	})
	if err != nil {
		return domain.WrapError(domain.ErrStore, "persist extraction", err)
	}
	return nil
}

// markFailed records a terminal failure with a non-empty message. The
// write uses a detached context so a document never sticks in
// processing just because the attempt's deadline already expired.
func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, id int64, cause error) error {
	message := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		message = fmt.Sprintf("processing deadline exceeded: %v", cause)
	}
	if message == "" {
		message = "processing failed"
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	status := domain.StatusFailed
	setProcessed := true
	if err := uc.store.Update(writeCtx, id, ports.DocumentUpdate{
		Status:      &status,
		Error:       &message,
		ProcessedAt: &setProcessed,
	}); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, err)
	}

	uc.logger.Warn("document processing failed", "document_id", id, "error", message)
	return cause
}
