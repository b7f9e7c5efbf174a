package ports

import (
	"context"

	"github.com/paperstack/intake/internal/core/domain"
)

// SubmitRequest is one upload: raw bytes plus the declared metadata.
type SubmitRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	AutoProcess bool
	Force       bool
}

// SubmitResult reports the created record plus any duplicate warning the
// guard surfaced on the way in.
type SubmitResult struct {
	Document *domain.Document      `json:"document"`
	Queued   bool                  `json:"queued"`
	Warning  string                `json:"warning,omitempty"`
	Match    domain.DuplicateMatch `json:"-"`
}

// DocumentSubmitter is the inbound contract for document intake.
type DocumentSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	CheckDuplicate(ctx context.Context, filename string, data []byte) (domain.DuplicateMatch, error)
}

// DocumentProcessor drives the pipeline for an already-ingested document.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID int64) error
	Reprocess(ctx context.Context, documentID int64) error
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Document, error)
}

// StatsProvider aggregates dashboard counters from the store.
type StatsProvider interface {
	Stats(ctx context.Context) (domain.ProcessingStats, error)
}
