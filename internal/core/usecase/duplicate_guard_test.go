package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/paperstack/intake/internal/core/domain"
)

func seedDocument(t *testing.T, store *fakeStore, filename, fp string, size int64) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		Filename:    filename,
		StoredName:  "stored_" + filename,
		Fingerprint: fp,
		SizeBytes:   size,
		Status:      domain.StatusCompleted,
		UploadedAt:  time.Now().UTC(),
	}
	id, err := store.Create(context.Background(), doc)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	doc.ID = id
	return doc
}

func TestClassifyFingerprintMatchIsExactContent(t *testing.T) {
	store := newFakeStore()
	existing := seedDocument(t, store, "jan.pdf", "abc123", 100)

	match, err := NewDuplicateGuard(store).Classify(context.Background(), "other-name.pdf", "abc123", 999)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if match.Kind != domain.DuplicateContent {
		t.Fatalf("kind = %s, want %s", match.Kind, domain.DuplicateContent)
	}
	if match.Existing == nil || match.Existing.ID != existing.ID {
		t.Fatalf("expected existing document %d carried in match", existing.ID)
	}
	if !match.Exact() {
		t.Fatalf("content match must classify as exact")
	}
}

func TestClassifyNameAndSizePrecedesContentDistinction(t *testing.T) {
	store := newFakeStore()
	seedDocument(t, store, "invoice.pdf", "fp-one", 2048)

	// Different fingerprint, same declared name and size: still exact,
	// with its own reason code.
	match, err := NewDuplicateGuard(store).Classify(context.Background(), "invoice.pdf", "fp-two", 2048)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if match.Kind != domain.DuplicateNameSize {
		t.Fatalf("kind = %s, want %s", match.Kind, domain.DuplicateNameSize)
	}
	if !match.Exact() {
		t.Fatalf("name+size match must classify as exact")
	}
}

func TestClassifyNameOnlyIsNearMatch(t *testing.T) {
	store := newFakeStore()
	seedDocument(t, store, "invoice.pdf", "fp-one", 2048)

	match, err := NewDuplicateGuard(store).Classify(context.Background(), "invoice.pdf", "fp-two", 4096)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if match.Kind != domain.DuplicateNear {
		t.Fatalf("kind = %s, want %s", match.Kind, domain.DuplicateNear)
	}
	if match.Exact() {
		t.Fatalf("near match must not classify as exact")
	}
	if match.Message == "" {
		t.Fatalf("near match must carry a warning message")
	}
}

func TestClassifyUnrelatedUploadIsNone(t *testing.T) {
	store := newFakeStore()
	seedDocument(t, store, "invoice.pdf", "fp-one", 2048)

	match, err := NewDuplicateGuard(store).Classify(context.Background(), "receipt.png", "fp-two", 777)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if match.Kind != domain.DuplicateNone {
		t.Fatalf("kind = %s, want %s", match.Kind, domain.DuplicateNone)
	}
}

func TestClassifyNeverExactForDistinctFingerprintAndNameSize(t *testing.T) {
	store := newFakeStore()
	seedDocument(t, store, "a.pdf", "fp-a", 10)
	seedDocument(t, store, "b.pdf", "fp-b", 20)

	guard := NewDuplicateGuard(store)
	probes := []struct {
		name string
		fp   string
		size int64
	}{
		{"c.pdf", "fp-c", 30},
		{"a.pdf", "fp-c", 30}, // name collides, size does not
		{"d.pdf", "fp-d", 10}, // size collides, name does not
	}
	for _, p := range probes {
		match, err := guard.Classify(context.Background(), p.name, p.fp, p.size)
		if err != nil {
			t.Fatalf("Classify(%s) error = %v", p.name, err)
		}
		if match.Exact() {
			t.Fatalf("probe %+v wrongly classified exact (%s)", p, match.Kind)
		}
	}
}

func TestClassifyPropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = context.DeadlineExceeded

	_, err := NewDuplicateGuard(store).Classify(context.Background(), "x.pdf", "fp", 1)
	if err == nil {
		t.Fatalf("expected store error")
	}
	if !domain.IsKind(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore kind, got %v", err)
	}
}
