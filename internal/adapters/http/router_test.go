package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/paperstack/intake/internal/config"
	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

type stubSubmitter struct {
	result *ports.SubmitResult
	match  domain.DuplicateMatch
	err    error
}

func (s stubSubmitter) Submit(context.Context, ports.SubmitRequest) (*ports.SubmitResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s stubSubmitter) CheckDuplicate(context.Context, string, []byte) (domain.DuplicateMatch, error) {
	if s.err != nil {
		return domain.DuplicateMatch{}, s.err
	}
	return s.match, nil
}

type stubProcessor struct {
	err         error
	reprocessed []int64
}

func (s *stubProcessor) Process(_ context.Context, id int64) error {
	return s.err
}

func (s *stubProcessor) Reprocess(_ context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	s.reprocessed = append(s.reprocessed, id)
	return nil
}

type stubReader struct {
	doc  *domain.Document
	docs []domain.Document
	err  error
}

func (s stubReader) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func (s stubReader) List(context.Context, ports.ListFilter) ([]domain.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

type stubStats struct {
	stats domain.ProcessingStats
	err   error
}

func (s stubStats) Stats(context.Context) (domain.ProcessingStats, error) {
	if s.err != nil {
		return domain.ProcessingStats{}, s.err
	}
	return s.stats, nil
}

type stubExporter struct {
	raw []byte
	err error
}

func (s stubExporter) DocumentsXLSX(context.Context, domain.DocumentStatus) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

type routerFixture struct {
	cfg       config.Config
	submitter ports.DocumentSubmitter
	processor ports.DocumentProcessor
	reader    ports.DocumentReader
	stats     ports.StatsProvider
	exporter  Exporter
}

func newRouterFixture() *routerFixture {
	return &routerFixture{
		cfg:       config.Config{MaxFileSizeBytes: 1 << 20},
		submitter: stubSubmitter{},
		processor: &stubProcessor{},
		reader:    stubReader{},
		stats:     stubStats{},
		exporter:  stubExporter{},
	}
}

func (f *routerFixture) handler() http.Handler {
	return NewRouter(f.cfg, f.submitter, f.processor, f.reader, f.stats, f.exporter, nil).Handler()
}

func sampleDocument(id int64, status domain.DocumentStatus) *domain.Document {
	return &domain.Document{
		ID:          id,
		Filename:    "invoice.pdf",
		StoredName:  "abc_invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		Fingerprint: "fp",
		Status:      status,
		UploadedAt:  time.Now().UTC(),
	}
}
