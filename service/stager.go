package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jrolls0/transplant-wizard-sub000/config"
	"github.com/jrolls0/transplant-wizard-sub000/model"
)

const dbOpTimeout = 15 * time.Second

// queryable is the subset of pgxpool.Pool the stager uses, extracted so
// tests can substitute a fake.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Stager persists processing outcomes for downstream clinical review.
// Records are insert-only: reprocessing a document creates a new row rather
// than updating an old one.
type Stager struct {
	db queryable
}

func NewStager(db queryable) *Stager {
	return &Stager{db: db}
}

// EnsureSchema creates the staged_records table if it does not exist.
func (s *Stager) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS staged_records (
			id UUID PRIMARY KEY,
			patient_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			extraction_result JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create staged_records table: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS staged_records_patient_idx
			ON staged_records (patient_id, created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create staged_records index: %w", err)
	}
	return nil
}

// Stage inserts one record for a processed document and returns its
// generated id. A nil result is stored as SQL NULL, never as an empty
// object, so review tooling can tell "not applicable" from "found nothing".
func (s *Stager) Stage(ctx context.Context, patientID string, docType model.DocumentType, result model.ExtractionResult) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOpTimeout)
	defer cancel()

	id := uuid.New().String()

	var payload []byte
	if result != nil {
		var err error
		payload, err = json.Marshal(result)
		if err != nil {
			return "", &StagingError{Err: fmt.Errorf("failed to marshal result: %w", err)}
		}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO staged_records (id, patient_id, document_type, extraction_result, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, patientID, string(docType), payload, time.Now().UTC())
	if err != nil {
		return "", &StagingError{Err: err}
	}

	return id, nil
}

const recordCols = `id, patient_id, document_type, extraction_result, created_at`

func scanRecord(row pgx.Row) (*model.StagedRecord, error) {
	var rec model.StagedRecord
	var docType string
	var payload []byte
	if err := row.Scan(&rec.ID, &rec.PatientID, &docType, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.DocumentType = model.DocumentType(docType)
	if payload != nil {
		if err := json.Unmarshal(payload, &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extraction result: %w", err)
		}
	}
	return &rec, nil
}

// GetRecord fetches one staged record by id. Returns pgx.ErrNoRows wrapped
// when the record does not exist.
func (s *Stager) GetRecord(ctx context.Context, id string) (*model.StagedRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOpTimeout)
	defer cancel()

	rec, err := scanRecord(s.db.QueryRow(ctx,
		`SELECT `+recordCols+` FROM staged_records WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get staged record %s: %w", id, err)
	}
	return rec, nil
}

// ListPatientRecords returns a patient's staged records, newest first.
func (s *Stager) ListPatientRecords(ctx context.Context, patientID string) ([]*model.StagedRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOpTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+recordCols+` FROM staged_records WHERE patient_id = $1 ORDER BY created_at DESC`,
		patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged records: %w", err)
	}
	defer rows.Close()

	var records []*model.StagedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read staged records: %w", err)
	}
	return records, nil
}
