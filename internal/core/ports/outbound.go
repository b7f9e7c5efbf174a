package ports

import (
	"context"
	"io"

	"github.com/paperstack/intake/internal/core/domain"
)

// DocumentUpdate carries the partial fields an update may touch. Nil
// pointers leave the stored value untouched.
type DocumentUpdate struct {
	Status      *domain.DocumentStatus
	Error       *string
	RawText     *string
	Method      *string
	Confidence  *float64
	Fields      *domain.ExtractedFields
	ProcessedAt *bool // true sets processed_at to now, false clears it
}

// ListFilter narrows and pages document listings.
type ListFilter struct {
	Status domain.DocumentStatus
	Limit  int
	Offset int
}

// DocumentStore persists and reads document state. The Find* lookups
// return (nil, nil) when nothing matches; GetByID returns ErrNotFound.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	Update(ctx context.Context, id int64, update DocumentUpdate) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error)
	FindByNameAndSize(ctx context.Context, filename string, size int64) (*domain.Document, error)
	FindByName(ctx context.Context, filename string) (*domain.Document, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Document, error)
	CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error)
	AverageProcessingSeconds(ctx context.Context) (float64, error)
}

// ObjectStorage stores source document bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes process requests.
type MessageQueue interface {
	PublishProcessRequested(ctx context.Context, documentID int64) error
	SubscribeProcessRequested(ctx context.Context, handler func(context.Context, int64) error) error
}

// OCREngine recognizes text from one rasterized image. Confidence is on
// the 0-100 scale. Name tags the acquisition method; an engine named
// "unavailable" is the degraded no-op implementation.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte, language string) (text string, confidence float64, err error)
	Name() string
}

// EmbeddedTextExtractor pulls text already present in a document's
// structure, as opposed to recognizing it from pixels.
type EmbeddedTextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// TextAcquirer obtains raw text for a document's bytes.
type TextAcquirer interface {
	Acquire(ctx context.Context, data []byte, contentType string) (domain.AcquiredText, error)
}
