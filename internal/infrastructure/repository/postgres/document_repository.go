package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(7461830021)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	stored_name TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	fingerprint TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	raw_text TEXT NOT NULL DEFAULT '',
	extraction_method TEXT NOT NULL DEFAULT '',
	ocr_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	fields JSONB,
	uploaded_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_documents_fingerprint ON documents(fingerprint);
CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents(filename);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, stored_name, content_type, size_bytes, fingerprint, status, error_message, raw_text, extraction_method, ocr_confidence, fields, uploaded_at, processed_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) (int64, error) {
	var fieldsJSON any
	if doc.Fields != nil {
		raw, err := json.Marshal(doc.Fields)
		if err != nil {
			return 0, fmt.Errorf("marshal fields: %w", err)
		}
		fieldsJSON = raw
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO documents (
	filename, stored_name, content_type, size_bytes, fingerprint, status, error_message, raw_text, extraction_method, ocr_confidence, fields, uploaded_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id
`,
		doc.Filename, doc.StoredName, doc.ContentType, doc.SizeBytes, doc.Fingerprint,
		string(doc.Status), doc.Error, doc.RawText, doc.ExtractionMethod, doc.OCRConfidence,
		fieldsJSON, doc.UploadedAt,
	).Scan(&id)
	if err != nil {
		return 0, domain.WrapError(domain.ErrStore, "insert document", err)
	}
	return id, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %d", id))
		}
		return nil, domain.WrapError(domain.ErrStore, "get document", err)
	}
	return doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, id int64, update ports.DocumentUpdate) error {
	sets := make([]string, 0, 7)
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.Error != nil {
		set("error_message", *update.Error)
	}
	if update.RawText != nil {
		set("raw_text", *update.RawText)
	}
	if update.Method != nil {
		set("extraction_method", *update.Method)
	}
	if update.Confidence != nil {
		set("ocr_confidence", *update.Confidence)
	}
	if update.Fields != nil {
		raw, err := json.Marshal(update.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		set("fields", raw)
	}
	if update.ProcessedAt != nil {
		if *update.ProcessedAt {
			set("processed_at", time.Now().UTC())
		} else {
			set("processed_at", nil)
		}
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update document", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update document", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update document", fmt.Errorf("id %d", id))
	}
	return nil
}

func (r *DocumentRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error) {
	return r.findOne(ctx, "find by fingerprint", `
SELECT `+documentColumns+`
FROM documents
WHERE fingerprint = $1
ORDER BY id
LIMIT 1
`, fingerprint)
}

func (r *DocumentRepository) FindByNameAndSize(ctx context.Context, filename string, size int64) (*domain.Document, error) {
	return r.findOne(ctx, "find by name and size", `
SELECT `+documentColumns+`
FROM documents
WHERE filename = $1 AND size_bytes = $2
ORDER BY id
LIMIT 1
`, filename, size)
}

func (r *DocumentRepository) FindByName(ctx context.Context, filename string) (*domain.Document, error) {
	return r.findOne(ctx, "find by name", `
SELECT `+documentColumns+`
FROM documents
WHERE filename = $1
ORDER BY id
LIMIT 1
`, filename)
}

func (r *DocumentRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrStore, op, err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT ` + documentColumns + `
FROM documents
`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += "WHERE status = $1\n"
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf("ORDER BY uploaded_at DESC, id DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list documents", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStore, "list documents", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list documents", err)
	}
	return out, nil
}

func (r *DocumentRepository) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE status = $1`, string(status)).Scan(&n)
	if err != nil {
		return 0, domain.WrapError(domain.ErrStore, "count documents", err)
	}
	return n, nil
}

func (r *DocumentRepository) AverageProcessingSeconds(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
SELECT AVG(EXTRACT(EPOCH FROM (processed_at - uploaded_at)))
FROM documents
WHERE status = $1 AND processed_at IS NOT NULL
`, string(domain.StatusCompleted)).Scan(&avg)
	if err != nil {
		return 0, domain.WrapError(domain.ErrStore, "average processing duration", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc         domain.Document
		status      string
		fieldsRaw   []byte
		processedAt sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.StoredName, &doc.ContentType, &doc.SizeBytes, &doc.Fingerprint,
		&status, &doc.Error, &doc.RawText, &doc.ExtractionMethod, &doc.OCRConfidence,
		&fieldsRaw, &doc.UploadedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	if len(fieldsRaw) > 0 {
		var fields domain.ExtractedFields
		if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		doc.Fields = &fields
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}
