package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docuflow/review-console/internal/core/domain"
)

// ReviewStore persists the console's audit of confirmed corrections.
// The validation backend owns the canonical values; this table is the
// local history feed shown alongside a document.
type ReviewStore struct {
	db *sql.DB
}

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
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

func (r *ReviewStore) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent console startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS corrections (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	reviewer_id TEXT NOT NULL,
	field_name TEXT NOT NULL,
	previous_value TEXT NOT NULL,
	corrected_value TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_corrections_document_id ON corrections(document_id, submitted_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// RecordCorrections inserts one audit row per confirmed correction in a
// single transaction, so a batch appears in the history all or nothing.
func (r *ReviewStore) RecordCorrections(ctx context.Context, records []domain.CorrectionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin corrections tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO corrections (
	id, document_id, reviewer_id, field_name, previous_value, corrected_value, submitted_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
			rec.ID, rec.DocumentID, rec.ReviewerID, rec.FieldName,
			rec.PreviousValue, rec.CorrectedValue, rec.SubmittedAt,
		)
		if err != nil {
			return fmt.Errorf("insert correction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit corrections tx: %w", err)
	}
	return nil
}

// History returns a document's corrections, newest first.
func (r *ReviewStore) History(ctx context.Context, documentID string) ([]domain.CorrectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, reviewer_id, field_name, previous_value, corrected_value, submitted_at
FROM corrections
WHERE document_id = $1
ORDER BY submitted_at DESC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query corrections: %w", err)
	}
	defer rows.Close()

	var records []domain.CorrectionRecord
	for rows.Next() {
		var rec domain.CorrectionRecord
		if err := rows.Scan(
			&rec.ID, &rec.DocumentID, &rec.ReviewerID, &rec.FieldName,
			&rec.PreviousValue, &rec.CorrectedValue, &rec.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan correction: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corrections: %w", err)
	}
	return records, nil
}
