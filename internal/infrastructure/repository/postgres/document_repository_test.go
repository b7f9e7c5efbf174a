package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateReturnsGeneratedID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(
			"invoice.pdf", "stored_invoice.pdf", "application/pdf", int64(2048), "abc123",
			string(domain.StatusPending), "", "", "", 0.0, nil, sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), &domain.Document{
		Filename:    "invoice.pdf",
		StoredName:  "stored_invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		Fingerprint: "abc123",
		Status:      domain.StatusPending,
		UploadedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != 7 {
		t.Fatalf("Create() id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, stored_name").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents SET status").
		WithArgs(int64(42), string(domain.StatusProcessing)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	status := domain.StatusProcessing
	err := repo.Update(context.Background(), 42, ports.DocumentUpdate{Status: &status})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateAppliesOnlyProvidedColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec(`UPDATE documents SET status = \$2, error_message = \$3 WHERE id = \$1`).
		WithArgs(int64(5), string(domain.StatusFailed), "ocr binary missing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := domain.StatusFailed
	msg := "ocr binary missing"
	if err := repo.Update(context.Background(), 5, ports.DocumentUpdate{Status: &status, Error: &msg}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByFingerprintReturnsNilWhenNoMatch(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, stored_name").
		WithArgs("deadbeef").
		WillReturnError(sql.ErrNoRows)

	doc, err := repo.FindByFingerprint(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("FindByFingerprint() error = %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document, got %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAverageProcessingSecondsHandlesEmptyTable(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT AVG").
		WithArgs(string(domain.StatusCompleted)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := repo.AverageProcessingSeconds(context.Background())
	if err != nil {
		t.Fatalf("AverageProcessingSeconds() error = %v", err)
	}
	if avg != 0 {
		t.Fatalf("avg = %v, want 0", avg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
