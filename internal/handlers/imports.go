package handlers

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/truckops-platform/api/internal/audit"
	"github.com/truckops-platform/api/internal/csvimport"
	"github.com/truckops-platform/api/internal/httpx"
	"github.com/truckops-platform/api/internal/middleware"
	"github.com/truckops-platform/api/internal/store"
)

var supportedCSVContentTypes = map[string]struct{}{
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
	"application/octet-stream": {},
}

type importMode string

const (
	importModePreview importMode = "preview"
	importModeCommit  importMode = "commit"
)

type importOptionsPayload struct {
	// ExcludedRows are zero-based indices into the previewed data rows that
	// the operator deselected before committing.
	ExcludedRows []int `json:"excludedRows,omitempty"`
}

type parsedImportFile struct {
	filename   string
	fileSHA256 string
	text       string
	options    importOptionsPayload
}

type appError struct {
	Status  int
	Code    string
	Message string
	Details any
}

type ImportRunResponse struct {
	ID          openapi_types.UUID   `json:"id"`
	Mode        string               `json:"mode"`
	Status      string               `json:"status"`
	Filename    string               `json:"filename"`
	FileSHA256  string               `json:"fileSha256"`
	TotalRows   int                  `json:"totalRows"`
	CreatedRows int                  `json:"createdRows"`
	UpdatedRows int                  `json:"updatedRows"`
	SkippedRows int                  `json:"skippedRows"`
	FailedRows  int                  `json:"failedRows"`
	Errors      []csvimport.RowError `json:"errors"`
	Warnings    []string             `json:"warnings"`
	CreatedAt   string               `json:"createdAt"`
	CompletedAt *string              `json:"completedAt,omitempty"`
	RequestID   string               `json:"requestId"`
}

func (s *Server) PostImportsPreview(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := actorIDs(w, r)
	if !ok {
		return
	}

	parsed, appErr := parseImportUpload(r, false)
	if appErr != nil {
		httpx.WriteError(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}

	preview := csvimport.PreviewWithLimit(parsed.text, s.Config.ImportMaxRows)
	if !preview.Success {
		httpx.WriteError(w, r, http.StatusBadRequest, "import_failed", preview.Error, nil)
		return
	}

	// Preview runs are persisted too, so the review step has a durable record
	// to hand back at commit time and the run history shows dry runs.
	mappingJSON, _ := json.Marshal(preview.HeaderToFieldMap)
	run, err := s.Store.CreateImportRun(r.Context(), store.CreateImportRunParams{
		CompanyID:       companyID,
		CreatedByUserID: &userID,
		Filename:        parsed.filename,
		FileSHA256:      parsed.fileSHA256,
		Mode:            string(importModePreview),
		Status:          "processing",
		MappingJSON:     mappingJSON,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create import run", nil)
		return
	}

	warningsJSON, _ := json.Marshal(preview.Warnings)
	if _, err := s.Store.CompleteImportRun(r.Context(), store.CompleteImportRunParams{
		ID:           run.ID,
		CompanyID:    companyID,
		Status:       "completed",
		TotalRows:    preview.TotalRows,
		WarningsJSON: warningsJSON,
	}); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to complete import run", nil)
		return
	}

	runID := run.ID
	_ = s.Audit.Log(r.Context(), audit.Entry{
		CompanyID:  companyID,
		UserID:     &userID,
		Action:     "import.preview",
		EntityType: "import_run",
		EntityID:   &runID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata: map[string]any{
			"filename":   parsed.filename,
			"fileSha256": parsed.fileSHA256,
			"rowsTotal":  preview.TotalRows,
			"isValid":    preview.IsValid,
		},
	})

	httpx.WriteJSON(w, http.StatusOK, importPreviewResponse{
		PreviewResult: preview,
		ImportRunID:   runID,
	})
}

// importPreviewResponse is the full pipeline preview plus the id of the
// persisted preview-mode run.
type importPreviewResponse struct {
	csvimport.PreviewResult
	ImportRunID openapi_types.UUID `json:"importRunId"`
}

func (s *Server) PostImportsCommit(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := actorIDs(w, r)
	if !ok {
		return
	}

	parsed, appErr := parseImportUpload(r, true)
	if appErr != nil {
		httpx.WriteError(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}

	preview := csvimport.PreviewWithLimit(parsed.text, s.Config.ImportMaxRows)
	if !preview.Success {
		httpx.WriteError(w, r, http.StatusBadRequest, "import_failed", preview.Error, nil)
		return
	}
	if !preview.IsValid {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error",
			"File must contain a VIN or Truck Number column",
			map[string]any{"missingFields": preview.MissingFields})
		return
	}

	excluded := make(map[int]struct{}, len(parsed.options.ExcludedRows))
	for _, idx := range parsed.options.ExcludedRows {
		excluded[idx] = struct{}{}
	}
	selected := 0
	for i := range preview.PreviewRows {
		if _, skip := excluded[i]; !skip {
			selected++
		}
	}
	if selected == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "import_failed", "No rows selected for import", nil)
		return
	}

	mappingJSON, _ := json.Marshal(preview.HeaderToFieldMap)
	run, err := s.Store.CreateImportRun(r.Context(), store.CreateImportRunParams{
		CompanyID:       companyID,
		CreatedByUserID: &userID,
		Filename:        parsed.filename,
		FileSHA256:      parsed.fileSHA256,
		Mode:            string(importModeCommit),
		Status:          "processing",
		MappingJSON:     mappingJSON,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create import run", nil)
		return
	}

	runID := run.ID
	requestID := middleware.RequestIDFromContext(r.Context())
	_ = s.Audit.Log(r.Context(), audit.Entry{
		CompanyID:  companyID,
		UserID:     &userID,
		Action:     "import.commit_started",
		EntityType: "import_run",
		EntityID:   &runID,
		RequestID:  requestID,
		Metadata: map[string]any{
			"filename":     parsed.filename,
			"fileSha256":   parsed.fileSHA256,
			"rowsTotal":    preview.TotalRows,
			"excludedRows": len(parsed.options.ExcludedRows),
		},
	})

	engine := csvimport.NewEngine(s.Store, s.Logger)
	result := engine.ImportRows(r.Context(), companyID, preview.PreviewRows, func(done, total int) {
		if done%500 == 0 || done == total {
			s.Logger.Info("import progress", "importRunId", runID, "done", done, "total", total)
		}
	}, excluded)

	for _, rowErr := range result.Errors {
		_ = s.Store.InsertImportRowError(r.Context(), store.InsertImportRowErrorParams{
			CompanyID:   companyID,
			ImportRunID: runID,
			RowNumber:   rowErr.Row,
			Action:      rowErr.Action,
			Message:     rowErr.Error,
		})
	}

	warningsJSON, _ := json.Marshal(preview.Warnings)
	updatedRun, err := s.Store.CompleteImportRun(r.Context(), store.CompleteImportRunParams{
		ID:           runID,
		CompanyID:    companyID,
		Status:       "completed",
		TotalRows:    result.Total,
		CreatedRows:  result.Created,
		UpdatedRows:  result.Updated,
		SkippedRows:  result.Skipped,
		FailedRows:   result.Failed,
		WarningsJSON: warningsJSON,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to complete import run", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		CompanyID:  companyID,
		UserID:     &userID,
		Action:     "import.commit_completed",
		EntityType: "import_run",
		EntityID:   &runID,
		RequestID:  requestID,
		Metadata: map[string]any{
			"filename": parsed.filename,
			"created":  result.Created,
			"updated":  result.Updated,
			"skipped":  result.Skipped,
			"failed":   result.Failed,
		},
	})

	httpx.WriteJSON(w, http.StatusOK, mapImportRunResponse(updatedRun, result.Errors, requestID))
}

func (s *Server) GetImportsImportRunId(w http.ResponseWriter, r *http.Request, importRunId openapi_types.UUID) {
	companyID, _, ok := actorIDs(w, r)
	if !ok {
		return
	}

	run, err := s.Store.GetImportRunByID(r.Context(), companyID, uuid.UUID(importRunId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.WriteError(w, r, http.StatusNotFound, "import_run_not_found", "Import run not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load import run", nil)
		return
	}

	rowErrors, err := s.Store.ListImportRowErrors(r.Context(), companyID, run.ID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load import rows", nil)
		return
	}

	errs := make([]csvimport.RowError, 0, len(rowErrors))
	for _, rowErr := range rowErrors {
		errs = append(errs, csvimport.RowError{Row: rowErr.RowNumber, Error: rowErr.Message, Action: rowErr.Action})
	}

	httpx.WriteJSON(w, http.StatusOK, mapImportRunResponse(run, errs, middleware.RequestIDFromContext(r.Context())))
}

func (s *Server) GetImportsImportRunIdErrorsCsv(w http.ResponseWriter, r *http.Request, importRunId openapi_types.UUID) {
	companyID, _, ok := actorIDs(w, r)
	if !ok {
		return
	}

	if _, err := s.Store.GetImportRunByID(r.Context(), companyID, uuid.UUID(importRunId)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.WriteError(w, r, http.StatusNotFound, "import_run_not_found", "Import run not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load import run", nil)
		return
	}

	rows, err := s.Store.ListImportRowErrors(r.Context(), companyID, uuid.UUID(importRunId))
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load import rows", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"import-%s-errors.csv\"", importRunId.String()))
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"row_number", "action", "message"})
	for _, row := range rows {
		_ = writer.Write([]string{strconv.Itoa(row.RowNumber), row.Action, row.Message})
	}
	writer.Flush()
}

func (s *Server) GetImportsTemplateCsv(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\"trucks-template.csv\"")
	_, _ = w.Write([]byte(csvimport.TruckTemplateCSV))
}

func mapImportRunResponse(run store.ImportRun, errs []csvimport.RowError, requestID string) ImportRunResponse {
	var warnings []string
	_ = json.Unmarshal(run.WarningsJSON, &warnings)
	if errs == nil {
		errs = []csvimport.RowError{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	resp := ImportRunResponse{
		ID:          openapi_types.UUID(run.ID),
		Mode:        run.Mode,
		Status:      run.Status,
		Filename:    run.Filename,
		FileSHA256:  run.FileSHA256,
		TotalRows:   run.TotalRows,
		CreatedRows: run.CreatedRows,
		UpdatedRows: run.UpdatedRows,
		SkippedRows: run.SkippedRows,
		FailedRows:  run.FailedRows,
		Errors:      errs,
		Warnings:    warnings,
		CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
		RequestID:   requestID,
	}
	if run.CompletedAt != nil {
		completed := run.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

func parseImportUpload(r *http.Request, optionsAllowed bool) (parsedImportFile, *appError) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_content_type",
			Message: "Content-Type must be multipart/form-data",
		}
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_multipart",
			Message: "Failed to parse multipart form",
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "missing_file",
			Message: "file is required",
		}
	}
	defer file.Close()

	var options importOptionsPayload
	if optionsAllowed {
		optionsRaw := strings.TrimSpace(r.FormValue("options"))
		if optionsRaw != "" {
			if err := json.Unmarshal([]byte(optionsRaw), &options); err != nil {
				return parsedImportFile{}, &appError{
					Status:  http.StatusBadRequest,
					Code:    "invalid_options",
					Message: "options must be valid JSON",
				}
			}
		}
	}

	filename := header.Filename
	ext := strings.ToLower(filepath.Ext(filename))
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))

	switch ext {
	case ".csv", ".txt":
		if contentType != "" {
			if _, ok := supportedCSVContentTypes[contentType]; !ok {
				return parsedImportFile{}, &appError{
					Status:  http.StatusBadRequest,
					Code:    "invalid_content_type",
					Message: "Unsupported CSV content type",
					Details: map[string]any{"contentType": contentType},
				}
			}
		}
	case ".xlsx", ".xls":
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "XLSX_NOT_SUPPORTED",
			Message: "Excel import is not supported. Please export and upload CSV.",
		}
	default:
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_file_type",
			Message: "Only .csv uploads are supported",
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_file",
			Message: "Failed to read uploaded file",
		}
	}
	if len(data) == 0 {
		return parsedImportFile{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "empty_file",
			Message: "Uploaded CSV is empty",
		}
	}
	digest := sha256.Sum256(data)

	return parsedImportFile{
		filename:   filename,
		fileSHA256: hex.EncodeToString(digest[:]),
		text:       string(data),
		options:    options,
	}, nil
}
