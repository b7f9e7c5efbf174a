package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	order      []int64
	docs       map[int64]*domain.Document
	createErr  error
	updateErr  error
	lookupErr  error
	avgSeconds float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[int64]*domain.Document)}
}

func (f *fakeStore) Create(_ context.Context, doc *domain.Document) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	stored := *doc
	stored.ID = f.nextID
	f.docs[stored.ID] = &stored
	f.order = append(f.order, stored.ID)
	return stored.ID, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, update ports.DocumentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.Status != nil {
		doc.Status = *update.Status
	}
	if update.Error != nil {
		doc.Error = *update.Error
	}
	if update.RawText != nil {
		doc.RawText = *update.RawText
	}
	if update.Method != nil {
		doc.ExtractionMethod = *update.Method
	}
	if update.Confidence != nil {
		doc.OCRConfidence = *update.Confidence
	}
	if update.Fields != nil {
		copied := *update.Fields
		doc.Fields = &copied
	}
	if update.ProcessedAt != nil {
		if *update.ProcessedAt {
			now := time.Now().UTC()
			doc.ProcessedAt = &now
		} else {
			doc.ProcessedAt = nil
		}
	}
	return nil
}

func (f *fakeStore) FindByFingerprint(_ context.Context, fp string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, id := range f.order {
		if f.docs[id].Fingerprint == fp {
			copied := *f.docs[id]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByNameAndSize(_ context.Context, filename string, size int64) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, id := range f.order {
		if f.docs[id].Filename == filename && f.docs[id].SizeBytes == size {
			copied := *f.docs[id]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByName(_ context.Context, filename string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, id := range f.order {
		if f.docs[id].Filename == filename {
			copied := *f.docs[id]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) List(_ context.Context, filter ports.ListFilter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, id := range f.order {
		if filter.Status != "" && f.docs[id].Status != filter.Status {
			continue
		}
		out = append(out, *f.docs[id])
	}
	return out, nil
}

func (f *fakeStore) CountByStatus(_ context.Context, status domain.DocumentStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, doc := range f.docs {
		if doc.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) AverageProcessingSeconds(context.Context) (float64, error) {
	return f.avgSeconds, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	openErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeQueue struct {
	mu         sync.Mutex
	published  []int64
	publishErr error
}

func (f *fakeQueue) PublishProcessRequested(_ context.Context, documentID int64) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeProcessRequested(context.Context, func(context.Context, int64) error) error {
	return nil
}

type fakeAcquirer struct {
	result domain.AcquiredText
	err    error
	calls  int
}

func (f *fakeAcquirer) Acquire(context.Context, []byte, string) (domain.AcquiredText, error) {
	f.calls++
	if f.err != nil {
		return domain.AcquiredText{}, f.err
	}
	return f.result, nil
}
