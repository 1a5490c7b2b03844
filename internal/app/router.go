package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/truckops-platform/api/internal/audit"
	"github.com/truckops-platform/api/internal/config"
	"github.com/truckops-platform/api/internal/handlers"
	"github.com/truckops-platform/api/internal/httpx"
	"github.com/truckops-platform/api/internal/middleware"
	"github.com/truckops-platform/api/internal/store"
)

func NewRouter(cfg config.Config, st *store.Store, pool *pgxpool.Pool, logger *slog.Logger) (http.Handler, error) {
	specPath := "openapi.yaml"
	if _, err := os.Stat(specPath); err != nil {
		alt := filepath.Join("..", "..", "openapi.yaml")
		if _, altErr := os.Stat(alt); altErr != nil {
			return nil, fmt.Errorf("openapi spec not found at %s: %w", specPath, err)
		}
		specPath = alt
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/imports/preview", MaxBytes: cfg.ImportMaxFileBytes},
		{PathPrefix: "/imports/commit", MaxBytes: cfg.ImportMaxFileBytes},
	}))

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			requestID := w.Header().Get("X-Request-Id")
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
				RequestID: requestID,
			})
		},
	}))

	auditLogger := audit.NewLogger(st)
	h := handlers.NewServer(cfg, st, auditLogger, logger, pool)

	authMW := middleware.AuthMiddleware{Store: st, CookieName: cfg.SessionCookieName}
	loginLimiter := middleware.NewLoginRateLimiter(10, time.Minute)

	api.Group(func(public chi.Router) {
		public.With(loginLimiter.Middleware).Post("/auth/login", h.PostAuthLogin)
		public.Get("/health", h.GetHealth)
	})

	api.Group(func(protected chi.Router) {
		protected.Use(authMW.RequireAuth)
		protected.Get("/auth/me", h.GetAuthMe)
		protected.Get("/auth/csrf", h.GetAuthCsrf)
		protected.With(middleware.EnforceCSRF(cfg.CSRFEnforce)).Post("/auth/logout", h.PostAuthLogout)

		protected.With(
			middleware.RequirePermission(st, "imports.write"),
			middleware.EnforceCSRF(cfg.CSRFEnforce),
		).Post("/imports/preview", h.PostImportsPreview)

		protected.With(
			middleware.RequirePermission(st, "imports.write"),
			middleware.EnforceCSRF(cfg.CSRFEnforce),
		).Post("/imports/commit", h.PostImportsCommit)

		protected.With(
			middleware.RequirePermission(st, "imports.read"),
		).Get("/imports/template.csv", h.GetImportsTemplateCsv)

		protected.With(
			middleware.RequirePermission(st, "imports.read"),
		).Get("/imports/{importRunId}", withRunID(h.GetImportsImportRunId))

		protected.With(
			middleware.RequirePermission(st, "imports.read"),
		).Get("/imports/{importRunId}/errors.csv", withRunID(h.GetImportsImportRunIdErrorsCsv))

		protected.With(
			middleware.RequirePermission(st, "trucks.read"),
		).Get("/exports/trucks.csv", h.GetExportsTrucksCsv)

		protected.With(
			middleware.RequirePermission(st, "customers.read"),
		).Get("/exports/customers.csv", h.GetExportsCustomersCsv)
	})

	r.Mount("/api", api)
	return r, nil
}

func withRunID(next func(http.ResponseWriter, *http.Request, openapi_types.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var runID openapi_types.UUID
		if err := runID.UnmarshalText([]byte(chi.URLParam(r, "importRunId"))); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "importRunId must be a UUID", nil)
			return
		}
		next(w, r, runID)
	}
}
