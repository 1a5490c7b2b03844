package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/truckops-platform/api/internal/auth"
	"github.com/truckops-platform/api/internal/config"
	"github.com/truckops-platform/api/internal/store"
)

const testCookieName = "to_sess"

func TestCompanyIsolationForImportRuns(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = seedCompanyUser(t, ctx, env.pool, "fleet-a", "Fleet A", "a@example.com", "Password123!", []string{"imports.read", "imports.write"})
	_, _ = seedCompanyUser(t, ctx, env.pool, "fleet-b", "Fleet B", "b@example.com", "Password123!", []string{"imports.read", "imports.write"})

	cookieA := login(t, env.router, "a@example.com", "Password123!")
	csrfA := csrfToken(t, env.router, cookieA)
	runID := commitImport(t, env.router, cookieA, csrfA, simpleTruckCSV, "")

	cookieB := login(t, env.router, "b@example.com", "Password123!")
	status, _ := request(t, env.router, http.MethodGet, "/api/imports/"+runID, nil, cookieB, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-company import run read, got %d", status)
	}
}

func TestRBACDeniesImportWrite(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	companyID, _ := seedCompanyUser(t, ctx, env.pool, "fleet-rbac", "Fleet RBAC", "writer@example.com", "Password123!", []string{"imports.read", "imports.write"})
	_, _ = seedUserInCompany(t, ctx, env.pool, companyID, "reader@example.com", "Password123!", []string{"imports.read"})

	cookie := login(t, env.router, "reader@example.com", "Password123!")
	csrf := csrfToken(t, env.router, cookie)

	status, body := uploadCSV(t, env.router, "/api/imports/preview", cookie, csrf, simpleTruckCSV, "")
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for missing imports.write, got %d (%s)", status, string(body))
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = seedCompanyUser(t, ctx, env.pool, "fleet-session", "Fleet Session", "session@example.com", "Password123!", []string{"imports.read"})

	cookie := login(t, env.router, "session@example.com", "Password123!")
	status, _ := request(t, env.router, http.MethodGet, "/api/auth/me", nil, cookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", status)
	}

	csrf := csrfToken(t, env.router, cookie)
	status, _ = request(t, env.router, http.MethodPost, "/api/auth/logout", nil, cookie, csrf)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 logout response, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodGet, "/api/auth/me", nil, cookie, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

func TestImportCommitCreatesThenReimportUpdates(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	companyID, _ := seedCompanyUser(t, ctx, env.pool, "fleet-import", "Fleet Import", "import@example.com", "Password123!", []string{"imports.read", "imports.write"})

	cookie := login(t, env.router, "import@example.com", "Password123!")
	csrf := csrfToken(t, env.router, cookie)

	status, body := uploadCSV(t, env.router, "/api/imports/commit", cookie, csrf, simpleTruckCSV, "")
	if status != http.StatusOK {
		t.Fatalf("commit expected 200, got %d (%s)", status, string(body))
	}
	first := parseImportRun(t, body)
	if first.CreatedRows != 2 || first.UpdatedRows != 0 {
		t.Fatalf("first commit expected 2 created / 0 updated, got %d / %d", first.CreatedRows, first.UpdatedRows)
	}

	status, body = uploadCSV(t, env.router, "/api/imports/commit", cookie, csrf, simpleTruckCSV, "")
	if status != http.StatusOK {
		t.Fatalf("recommit expected 200, got %d (%s)", status, string(body))
	}
	second := parseImportRun(t, body)
	if second.CreatedRows != 0 || second.UpdatedRows != 2 {
		t.Fatalf("second commit expected 0 created / 2 updated, got %d / %d", second.CreatedRows, second.UpdatedRows)
	}

	var count int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trucks WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		t.Fatalf("count trucks: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 trucks after reimport, got %d", count)
	}
}

func TestImportPreviewSkipsEnterprisePreamble(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = seedCompanyUser(t, ctx, env.pool, "fleet-preview", "Fleet Preview", "preview@example.com", "Password123!", []string{"imports.read", "imports.write"})

	cookie := login(t, env.router, "preview@example.com", "Password123!")
	csrf := csrfToken(t, env.router, cookie)

	csvText := "Fleet Report - generated 2026-01-05\n" +
		"Company: ACME Trucking\n" +
		"\n" +
		"VIN,Unit Number,Make,Model,Year\n" +
		"1FUJGLDR2CLBP8834,TRK-1,Freightliner,Cascadia,2019\n"
	status, body := uploadCSV(t, env.router, "/api/imports/preview", cookie, csrf, csvText, "")
	if status != http.StatusOK {
		t.Fatalf("preview expected 200, got %d (%s)", status, string(body))
	}

	var preview struct {
		Success     bool `json:"success"`
		TotalRows   int  `json:"totalRows"`
		SkippedRows int  `json:"skippedRows"`
		IsValid     bool `json:"isValid"`
		PreviewRows []struct {
			RowNumber int `json:"rowNumber"`
		} `json:"previewRows"`
	}
	if err := json.Unmarshal(body, &preview); err != nil {
		t.Fatalf("parse preview body: %v", err)
	}
	if !preview.Success || !preview.IsValid {
		t.Fatalf("expected successful valid preview, got %+v", preview)
	}
	if preview.SkippedRows != 2 {
		t.Fatalf("expected 2 skipped preamble rows, got %d", preview.SkippedRows)
	}
	if len(preview.PreviewRows) != 1 || preview.PreviewRows[0].RowNumber != 4 {
		t.Fatalf("expected single data row numbered 4, got %+v", preview.PreviewRows)
	}
}

func TestImportCommitHonorsExcludedRows(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	companyID, _ := seedCompanyUser(t, ctx, env.pool, "fleet-excluded", "Fleet Excluded", "excluded@example.com", "Password123!", []string{"imports.read", "imports.write"})

	cookie := login(t, env.router, "excluded@example.com", "Password123!")
	csrf := csrfToken(t, env.router, cookie)

	status, body := uploadCSV(t, env.router, "/api/imports/commit", cookie, csrf, simpleTruckCSV, `{"excludedRows":[0]}`)
	if status != http.StatusOK {
		t.Fatalf("commit expected 200, got %d (%s)", status, string(body))
	}
	run := parseImportRun(t, body)
	if run.TotalRows != 1 || run.CreatedRows != 1 {
		t.Fatalf("expected 1 total / 1 created with first row excluded, got %d / %d", run.TotalRows, run.CreatedRows)
	}

	var count int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trucks WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		t.Fatalf("count trucks: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 truck, got %d", count)
	}
}

func TestImportCommitRejectsWhenEveryRowIsExcluded(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	companyID, _ := seedCompanyUser(t, ctx, env.pool, "fleet-all-excluded", "Fleet All Excluded", "allexcluded@example.com", "Password123!", []string{"imports.read", "imports.write"})

	cookie := login(t, env.router, "allexcluded@example.com", "Password123!")
	csrf := csrfToken(t, env.router, cookie)

	status, body := uploadCSV(t, env.router, "/api/imports/commit", cookie, csrf, simpleTruckCSV, `{"excludedRows":[0,1]}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 when every row is excluded, got %d (%s)", status, string(body))
	}
	if !bytes.Contains(body, []byte("No rows selected for import")) {
		t.Fatalf("unexpected error body: %s", string(body))
	}

	var runs int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM import_runs WHERE company_id = $1 AND mode = 'commit'`, companyID).Scan(&runs); err != nil {
		t.Fatalf("count import runs: %v", err)
	}
	if runs != 0 {
		t.Fatalf("expected no commit run persisted, got %d", runs)
	}
}

func TestImportPreviewPersistsPreviewRun(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = seedCompanyUser(t, ctx, env.pool, "fleet-dryrun", "Fleet Dryrun", "dryrun@example.com", "Password123!", []string{"imports.read", "imports.write"})

	cookie := login(t, env.router, "dryrun@example.com", "Password123!")
	csrf := csrfToken(t, env.router, cookie)

	status, body := uploadCSV(t, env.router, "/api/imports/preview", cookie, csrf, simpleTruckCSV, "")
	if status != http.StatusOK {
		t.Fatalf("preview expected 200, got %d (%s)", status, string(body))
	}

	var preview struct {
		Success     bool   `json:"success"`
		TotalRows   int    `json:"totalRows"`
		ImportRunID string `json:"importRunId"`
	}
	if err := json.Unmarshal(body, &preview); err != nil {
		t.Fatalf("parse preview body: %v", err)
	}
	if !preview.Success || preview.ImportRunID == "" {
		t.Fatalf("expected persisted preview run id, got %+v", preview)
	}

	status, body = request(t, env.router, http.MethodGet, "/api/imports/"+preview.ImportRunID, nil, cookie, "")
	if status != http.StatusOK {
		t.Fatalf("fetch preview run expected 200, got %d (%s)", status, string(body))
	}
	var run struct {
		Mode      string `json:"mode"`
		Status    string `json:"status"`
		TotalRows int    `json:"totalRows"`
	}
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("parse run body: %v", err)
	}
	if run.Mode != "preview" || run.Status != "completed" || run.TotalRows != 2 {
		t.Fatalf("unexpected preview run: %+v", run)
	}
}

const simpleTruckCSV = "vin,truck_number,make,model,year\n" +
	"1FUJGLDR2CLBP8834,TRK-1,Freightliner,Cascadia,2019\n" +
	"3AKJHHDR9JSJV5527,TRK-2,Kenworth,T680,2021\n"

type testEnv struct {
	pool   *pgxpool.Pool
	router http.Handler
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)

	resetSchema(t, ctx, pool, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Addr:              ":0",
		DatabaseURL:       databaseURL,
		SessionCookieName: testCookieName,
		SessionTTL:        12 * time.Hour,
		SecureCookies:     false,
		CSRFEnforce:       true,
		Env:               "test",
		APIMaxBodyBytes:   2 << 20,
		ImportMaxRows:     5000,
	}
	cfg.ImportMaxFileBytes = 25 << 20

	router, err := NewRouter(cfg, store.New(pool), pool, logger)
	if err != nil {
		t.Fatalf("create router: %v", err)
	}

	return testEnv{pool: pool, router: router}
}

func resetSchema(t *testing.T, ctx context.Context, pool *pgxpool.Pool, databaseURL string) {
	t.Helper()

	if _, err := pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	migrationsDir := filepath.Join("..", "..", "migrations")
	if _, err := os.Stat(migrationsDir); err != nil {
		migrationsDir = "migrations"
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		t.Fatalf("open migration db: %v", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func seedCompanyUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, slug, name, email, password string, permissions []string) (uuid.UUID, uuid.UUID) {
	t.Helper()
	var companyID uuid.UUID
	if err := pool.QueryRow(ctx, `INSERT INTO companies (slug, name) VALUES ($1, $2) RETURNING id`, slug, name).Scan(&companyID); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	userID, _ := seedUserInCompany(t, ctx, pool, companyID, email, password, permissions)
	return companyID, userID
}

func seedUserInCompany(t *testing.T, ctx context.Context, pool *pgxpool.Pool, companyID uuid.UUID, email, password string, permissions []string) (uuid.UUID, uuid.UUID) {
	t.Helper()
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var userID uuid.UUID
	if err := pool.QueryRow(ctx, `
		INSERT INTO users (company_id, email, full_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, companyID, email, email, passwordHash).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	for _, perm := range permissions {
		if _, err := pool.Exec(ctx, `
			INSERT INTO user_permissions (company_id, user_id, permission)
			VALUES ($1, $2, $3)
		`, companyID, userID, perm); err != nil {
			t.Fatalf("seed permission: %v", err)
		}
	}

	return userID, companyID
}

func login(t *testing.T, router http.Handler, email, password string) *http.Cookie {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:12345"
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		body, _ := io.ReadAll(rec.Result().Body)
		t.Fatalf("login expected 200, got %d with body: %s", rec.Code, string(body))
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func csrfToken(t *testing.T, router http.Handler, session *http.Cookie) string {
	t.Helper()
	status, body := request(t, router, http.MethodGet, "/api/auth/csrf", nil, session, "")
	if status != http.StatusOK {
		t.Fatalf("csrf expected 200, got %d (%s)", status, string(body))
	}
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("parse csrf body: %v", err)
	}
	return payload["csrfToken"]
}

func commitImport(t *testing.T, router http.Handler, session *http.Cookie, csrf, csvText, options string) string {
	t.Helper()
	status, body := uploadCSV(t, router, "/api/imports/commit", session, csrf, csvText, options)
	if status != http.StatusOK {
		t.Fatalf("commit expected 200, got %d (%s)", status, string(body))
	}
	run := parseImportRun(t, body)
	if run.ID == "" {
		t.Fatal("import run id missing")
	}
	return run.ID
}

type importRunBody struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	TotalRows   int    `json:"totalRows"`
	CreatedRows int    `json:"createdRows"`
	UpdatedRows int    `json:"updatedRows"`
	SkippedRows int    `json:"skippedRows"`
	FailedRows  int    `json:"failedRows"`
}

func parseImportRun(t *testing.T, body []byte) importRunBody {
	t.Helper()
	var run importRunBody
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("parse import run body: %v", err)
	}
	return run
}

func uploadCSV(t *testing.T, router http.Handler, path string, session *http.Cookie, csrf, csvText, options string) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "trucks.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvText)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if options != "" {
		if err := writer.WriteField("options", options); err != nil {
			t.Fatalf("write options field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.RemoteAddr = "127.0.0.1:12345"
	if session != nil {
		req.AddCookie(session)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}

func request(t *testing.T, router http.Handler, method, path string, body []byte, session *http.Cookie, csrf string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}
