package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ImportRun struct {
	ID              uuid.UUID
	CompanyID       uuid.UUID
	CreatedByUserID *uuid.UUID
	Filename        string
	FileSHA256      string
	Mode            string
	Status          string
	TotalRows       int
	CreatedRows     int
	UpdatedRows     int
	SkippedRows     int
	FailedRows      int
	WarningsJSON    []byte
	MappingJSON     []byte
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

const importRunColumns = `id, company_id, created_by_user_id, filename, file_sha256, mode, status,
	total_rows, created_rows, updated_rows, skipped_rows, failed_rows,
	warnings_json, mapping_json, created_at, completed_at`

func scanImportRun(row interface{ Scan(...any) error }) (ImportRun, error) {
	var r ImportRun
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.CreatedByUserID, &r.Filename, &r.FileSHA256, &r.Mode, &r.Status,
		&r.TotalRows, &r.CreatedRows, &r.UpdatedRows, &r.SkippedRows, &r.FailedRows,
		&r.WarningsJSON, &r.MappingJSON, &r.CreatedAt, &r.CompletedAt,
	)
	return r, err
}

type CreateImportRunParams struct {
	CompanyID       uuid.UUID
	CreatedByUserID *uuid.UUID
	Filename        string
	FileSHA256      string
	Mode            string
	Status          string
	MappingJSON     []byte
}

func (s *Store) CreateImportRun(ctx context.Context, params CreateImportRunParams) (ImportRun, error) {
	mapping := params.MappingJSON
	if len(mapping) == 0 {
		mapping = []byte(`{}`)
	}
	return scanImportRun(s.pool.QueryRow(ctx, `
		INSERT INTO import_runs (company_id, created_by_user_id, filename, file_sha256, mode, status, warnings_json, mapping_json)
		VALUES ($1, $2, $3, $4, $5, $6, '[]', $7)
		RETURNING `+importRunColumns,
		params.CompanyID, params.CreatedByUserID, params.Filename, params.FileSHA256,
		params.Mode, params.Status, mapping))
}

type CompleteImportRunParams struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Status       string
	TotalRows    int
	CreatedRows  int
	UpdatedRows  int
	SkippedRows  int
	FailedRows   int
	WarningsJSON []byte
}

func (s *Store) CompleteImportRun(ctx context.Context, params CompleteImportRunParams) (ImportRun, error) {
	warnings := params.WarningsJSON
	if len(warnings) == 0 {
		warnings = []byte(`[]`)
	}
	return scanImportRun(s.pool.QueryRow(ctx, `
		UPDATE import_runs SET
			status = $3,
			total_rows = $4,
			created_rows = $5,
			updated_rows = $6,
			skipped_rows = $7,
			failed_rows = $8,
			warnings_json = $9,
			completed_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+importRunColumns,
		params.ID, params.CompanyID, params.Status,
		params.TotalRows, params.CreatedRows, params.UpdatedRows, params.SkippedRows, params.FailedRows,
		warnings))
}

func (s *Store) GetImportRunByID(ctx context.Context, companyID, runID uuid.UUID) (ImportRun, error) {
	return scanImportRun(s.pool.QueryRow(ctx, `
		SELECT `+importRunColumns+`
		FROM import_runs
		WHERE id = $2 AND company_id = $1
	`, companyID, runID))
}

type ImportRowError struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	ImportRunID uuid.UUID
	RowNumber   int
	Action      string
	Message     string
}

type InsertImportRowErrorParams struct {
	CompanyID   uuid.UUID
	ImportRunID uuid.UUID
	RowNumber   int
	Action      string
	Message     string
}

func (s *Store) InsertImportRowError(ctx context.Context, params InsertImportRowErrorParams) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_row_errors (company_id, import_run_id, row_number, action, message)
		VALUES ($1, $2, $3, $4, $5)
	`, params.CompanyID, params.ImportRunID, params.RowNumber, params.Action, params.Message)
	return err
}

func (s *Store) ListImportRowErrors(ctx context.Context, companyID, runID uuid.UUID) ([]ImportRowError, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, import_run_id, row_number, action, message
		FROM import_row_errors
		WHERE company_id = $1 AND import_run_id = $2
		ORDER BY row_number
	`, companyID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRowError
	for rows.Next() {
		var e ImportRowError
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.ImportRunID, &e.RowNumber, &e.Action, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
