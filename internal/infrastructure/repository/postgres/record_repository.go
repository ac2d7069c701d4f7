package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
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

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026090101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	filename TEXT NOT NULL,
	media_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	structured JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_owner ON records(owner_id);
CREATE INDEX IF NOT EXISTS idx_records_kind_status ON records(kind, status);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RecordRepository) Create(ctx context.Context, rec *domain.Record) error {
	structured, err := marshalStructured(rec.Structured)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO records (
	id, owner_id, kind, filename, media_type, storage_path, status, error_message, structured, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		rec.ID, rec.OwnerID, string(rec.Kind), rec.Filename, rec.MediaType, rec.StoragePath,
		string(rec.Status), rec.Error, structured, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, kind, filename, media_type, storage_path, status, error_message, structured, created_at, updated_at
FROM records
WHERE id = $1
`, id)

	var rec domain.Record
	var kind, status string
	var structuredRaw []byte

	err := row.Scan(
		&rec.ID, &rec.OwnerID, &kind, &rec.Filename, &rec.MediaType, &rec.StoragePath,
		&status, &rec.Error, &structuredRaw, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	rec.Kind = domain.RecordKind(kind)
	rec.Status = domain.RecordStatus(status)
	if len(structuredRaw) > 0 {
		var structured domain.StructuredRecord
		if err := json.Unmarshal(structuredRaw, &structured); err != nil {
			return nil, fmt.Errorf("unmarshal structured payload: %w", err)
		}
		rec.Structured = &structured
	}
	return &rec, nil
}

func (r *RecordRepository) SaveStructured(ctx context.Context, id string, structured *domain.StructuredRecord) error {
	raw, err := marshalStructured(structured)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE records
SET structured = $2, status = $3, updated_at = $4
WHERE id = $1
`, id, raw, string(domain.StatusParsed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save structured payload: %w", err)
	}
	return checkAffected(res, id)
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE records
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	return checkAffected(res, id)
}

func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return checkAffected(res, id)
}

func marshalStructured(structured *domain.StructuredRecord) ([]byte, error) {
	if structured == nil {
		return nil, nil
	}
	raw, err := json.Marshal(structured)
	if err != nil {
		return nil, fmt.Errorf("marshal structured payload: %w", err)
	}
	return raw, nil
}

func checkAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRecordNotFound, "update record", fmt.Errorf("id %s", id))
	}
	return nil
}
