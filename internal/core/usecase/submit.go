package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/fingerprint"
	"github.com/paperstack/intake/internal/core/ports"
)

// SubmitConfig is the upload validation policy.
type SubmitConfig struct {
	AllowedExtensions []string // lowercase, without dot
	MaxSizeBytes      int64
}

// SubmitDocumentUseCase owns intake: validation, duplicate
// classification, byte storage, and the pending record. When a queue is
// wired, processing is dispatched to the worker; otherwise it runs
// inline before Submit returns.
type SubmitDocumentUseCase struct {
	store     ports.DocumentStore
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
	guard     *DuplicateGuard
	processor ports.DocumentProcessor
	cfg       SubmitConfig
}

func NewSubmitDocumentUseCase(
	store ports.DocumentStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	processor ports.DocumentProcessor,
	cfg SubmitConfig,
) *SubmitDocumentUseCase {
	return &SubmitDocumentUseCase{
		store:     store,
		storage:   storage,
		queue:     queue,
		guard:     NewDuplicateGuard(store),
		processor: processor,
		cfg:       cfg,
	}
}

func (uc *SubmitDocumentUseCase) Submit(ctx context.Context, req ports.SubmitRequest) (*ports.SubmitResult, error) {
	if err := uc.validate(req); err != nil {
		return nil, err
	}

	fp := fingerprint.Hash(req.Data)
	match, err := uc.guard.Classify(ctx, req.Filename, fp, int64(len(req.Data)))
	if err != nil {
		return nil, err
	}

	var warning string
	switch {
	case match.Exact() && !req.Force:
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicate, match.Message)
	case match.Exact():
		// Forced past an exact duplicate: ingest, but never silently.
		warning = match.Message
	case match.Kind == domain.DuplicateNear:
		warning = match.Message
	}

	storedName := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(req.Filename))
	if err := uc.storage.Save(ctx, storedName, bytes.NewReader(req.Data)); err != nil {
		return nil, fmt.Errorf("save document bytes: %w", err)
	}

	doc := &domain.Document{
		Filename:    req.Filename,
		StoredName:  storedName,
		ContentType: req.ContentType,
		SizeBytes:   int64(len(req.Data)),
		Fingerprint: fp,
		Status:      domain.StatusPending,
		UploadedAt:  time.Now().UTC(),
	}
	id, err := uc.store.Create(ctx, doc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "create document record", err)
	}
	doc.ID = id

	result := &ports.SubmitResult{Document: doc, Warning: warning, Match: match}
	if !req.AutoProcess {
		return result, nil
	}

	if uc.queue != nil {
		if err := uc.queue.PublishProcessRequested(ctx, id); err != nil {
			return nil, fmt.Errorf("queue process request for document %d: %w", id, err)
		}
		result.Queued = true
		return result, nil
	}

	// No queue configured: run the pipeline before returning. Pipeline
	// failures land in the failed record, not in the submit response.
	_ = uc.processor.Process(ctx, id)
	if refreshed, err := uc.store.GetByID(ctx, id); err == nil {
		result.Document = refreshed
	}
	return result, nil
}

// CheckDuplicate classifies bytes without creating a record.
func (uc *SubmitDocumentUseCase) CheckDuplicate(ctx context.Context, filename string, data []byte) (domain.DuplicateMatch, error) {
	return uc.guard.Classify(ctx, filename, fingerprint.Hash(data), int64(len(data)))
}

func (uc *SubmitDocumentUseCase) validate(req ports.SubmitRequest) error {
	if strings.TrimSpace(req.Filename) == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}
	if len(req.Data) == 0 {
		return fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	if uc.cfg.MaxSizeBytes > 0 && int64(len(req.Data)) > uc.cfg.MaxSizeBytes {
		return fmt.Errorf("%w: file size %d exceeds limit %d bytes",
			domain.ErrValidation, len(req.Data), uc.cfg.MaxSizeBytes)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Filename)), ".")
	for _, allowed := range uc.cfg.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: file type %q is not allowed", domain.ErrValidation, ext)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
