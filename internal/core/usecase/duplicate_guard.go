package usecase

import (
	"context"
	"fmt"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

// DuplicateGuard classifies an incoming upload against stored documents.
// Read-only; it never writes through the store.
type DuplicateGuard struct {
	store ports.DocumentStore
}

func NewDuplicateGuard(store ports.DocumentStore) *DuplicateGuard {
	return &DuplicateGuard{store: store}
}

// Classify checks, in priority order: content fingerprint, then
// (filename, size), then filename alone. The first two are exact
// duplicates; a name-only hit is a warning, not a rejection.
func (g *DuplicateGuard) Classify(ctx context.Context, filename, fp string, size int64) (domain.DuplicateMatch, error) {
	existing, err := g.store.FindByFingerprint(ctx, fp)
	if err != nil {
		return domain.DuplicateMatch{}, domain.WrapError(domain.ErrStore, "lookup by fingerprint", err)
	}
	if existing != nil {
		return domain.DuplicateMatch{
			Kind:     domain.DuplicateContent,
			Existing: existing,
			Message: fmt.Sprintf("identical content already uploaded as %q (id %d) at %s",
				existing.Filename, existing.ID, existing.UploadedAt.Format("2006-01-02 15:04:05")),
		}, nil
	}

	existing, err = g.store.FindByNameAndSize(ctx, filename, size)
	if err != nil {
		return domain.DuplicateMatch{}, domain.WrapError(domain.ErrStore, "lookup by name and size", err)
	}
	if existing != nil {
		return domain.DuplicateMatch{
			Kind:     domain.DuplicateNameSize,
			Existing: existing,
			Message: fmt.Sprintf("a file named %q with the same size (%d bytes) already exists (id %d)",
				existing.Filename, existing.SizeBytes, existing.ID),
		}, nil
	}

	existing, err = g.store.FindByName(ctx, filename)
	if err != nil {
		return domain.DuplicateMatch{}, domain.WrapError(domain.ErrStore, "lookup by name", err)
	}
	if existing != nil {
		return domain.DuplicateMatch{
			Kind:     domain.DuplicateNear,
			Existing: existing,
			Message: fmt.Sprintf("a file named %q already exists (id %d) with different content",
				existing.Filename, existing.ID),
		}, nil
	}

	return domain.DuplicateMatch{Kind: domain.DuplicateNone}, nil
}
