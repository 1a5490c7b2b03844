package csvimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/truckops-platform/api/internal/store"
)

// Store is the slice of the data layer the upsert engine needs. Satisfied by
// *store.Store; tests substitute an in-memory fake.
type Store interface {
	GetCustomerByExternalID(ctx context.Context, companyID uuid.UUID, externalID string) (store.Customer, error)
	GetCustomerByName(ctx context.Context, companyID uuid.UUID, name string) (store.Customer, error)
	CreateCustomer(ctx context.Context, params store.CreateCustomerParams) (store.Customer, error)
	SetCustomerExternalID(ctx context.Context, companyID, customerID uuid.UUID, externalID string) error
	GetTruckByVIN(ctx context.Context, companyID uuid.UUID, vin string) (store.Truck, error)
	CreateTruck(ctx context.Context, params store.CreateTruckParams) (store.Truck, error)
	UpdateTruck(ctx context.Context, params store.UpdateTruckParams) (store.Truck, error)
}

// Engine resolves customers and upserts trucks row by row.
type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(s Store, logger *slog.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// Row outcome actions reported in the error list.
const (
	ActionSkipped      = "skipped"
	ActionCreateFailed = "create_failed"
	ActionUpdateFailed = "update_failed"
)

// maxReportedErrors caps the error list carried back to the UI; counters keep
// counting past it.
const maxReportedErrors = 50

type RowError struct {
	Row    int    `json:"row"`
	Error  string `json:"error"`
	Action string `json:"action"`
}

type ImportResult struct {
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

// ProgressFunc is invoked after each processed row with (processed, total).
type ProgressFunc func(processed, total int)

// ImportRows runs the resolver/upsert sequence for every row, strictly
// sequentially: each row's customer resolution and truck write completes
// before the next row starts, which keeps error isolation and progress
// reporting trivial to reason about. Rows whose original index is in excluded
// are dropped before processing begins. Row-level problems are counted and
// collected, never returned as an error; re-running the same file is safe
// because existing VINs update instead of duplicating.
func (e *Engine) ImportRows(ctx context.Context, companyID uuid.UUID, rows []TransformedRow, onProgress ProgressFunc, excluded map[int]struct{}) ImportResult {
	selected := rows
	if len(excluded) > 0 {
		selected = make([]TransformedRow, 0, len(rows))
		for i, row := range rows {
			if _, skip := excluded[i]; skip {
				continue
			}
			selected = append(selected, row)
		}
	}

	result := ImportResult{Total: len(selected)}
	for i, row := range selected {
		e.importRow(ctx, companyID, row, &result)
		if onProgress != nil {
			onProgress(i+1, len(selected))
		}
	}
	return result
}

func (e *Engine) importRow(ctx context.Context, companyID uuid.UUID, row TransformedRow, result *ImportResult) {
	vin := strings.ToUpper(strings.TrimSpace(row.Fields[FieldVIN]))
	truckNumber := strings.TrimSpace(row.Fields[FieldTruckNumber])

	if vin == "" && truckNumber == "" {
		result.addSkip(row.RowNumber, "Either VIN or Truck Number is required")
		return
	}
	if vin != "" && len(vin) != vinLength {
		result.addSkip(row.RowNumber, fmt.Sprintf("Invalid VIN length: %d", len(vin)))
		return
	}

	fields := e.buildTruckFields(ctx, companyID, row)

	var existing *store.Truck
	if vin != "" {
		truck, err := e.store.GetTruckByVIN(ctx, companyID, vin)
		switch {
		case err == nil:
			existing = &truck
		case errors.Is(err, pgx.ErrNoRows):
			// new VIN, insert below
		default:
			result.addFailure(row.RowNumber, fmt.Sprintf("Truck lookup failed: %v", err), ActionUpdateFailed)
			return
		}
	}

	if existing != nil {
		_, err := e.store.UpdateTruck(ctx, store.UpdateTruckParams{
			ID:          existing.ID,
			CompanyID:   companyID,
			TruckFields: fields,
		})
		if err != nil {
			result.addFailure(row.RowNumber, fmt.Sprintf("Truck update failed: %v", err), ActionUpdateFailed)
			return
		}
		result.Updated++
		return
	}

	// Truck-number-only rows can update nothing and must not create: VIN is
	// the natural key and new rows without one would be unmatchable forever.
	if vin == "" {
		result.addSkip(row.RowNumber, "VIN is required for new trucks")
		return
	}

	_, err := e.store.CreateTruck(ctx, store.CreateTruckParams{
		CompanyID:   companyID,
		VIN:         vin,
		TruckFields: fields,
	})
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a create-vs-create race on the same VIN; the winner's row
			// already carries the data.
			result.addSkip(row.RowNumber, "Duplicate VIN")
			return
		}
		result.addFailure(row.RowNumber, fmt.Sprintf("Truck insert failed: %v", err), ActionCreateFailed)
		return
	}
	result.Created++
}

// buildTruckFields turns a transformed row into store params. The customer
// link is best-effort enrichment: a failed resolution logs and leaves the
// link null rather than failing the row.
func (e *Engine) buildTruckFields(ctx context.Context, companyID uuid.UUID, row TransformedRow) store.TruckFields {
	fields := row.Fields
	truckNumber := strings.TrimSpace(fields[FieldTruckNumber])

	tf := store.TruckFields{
		TruckNumber:     ptrOrNil(truckNumber),
		UnitID:          ptrOrNil(truckNumber),
		Year:            parseIntField(fields[FieldYear]),
		Make:            ptrOrNil(fields[FieldMake]),
		Model:           ptrOrNil(fields[FieldModel]),
		Odometer:        parseInt64Field(fields[FieldOdometer]),
		EngineHours:     parseFloatField(fields[FieldEngineHours]),
		LicensePlate:    ptrOrNil(fields[FieldLicensePlate]),
		InServiceDate:   parseFlexibleDate(fields[FieldInServiceDate]),
		LocationCode:    ptrOrNil(fields[FieldLocationCode]),
		FleetAssignment: ptrOrNil(fields[FieldFleetAssignment]),
		VehicleClass:    ptrOrNil(fields[FieldVehicleClass]),
		BodyType:        ptrOrNil(fields[FieldBodyType]),
		GVWR:            ptrOrNil(fields[FieldGVWR]),
		Color:           ptrOrNil(fields[FieldColor]),
		Subsystems:      BuildSubsystems(fields),
	}

	customerID, customerName := e.resolveCustomer(ctx, companyID, row)
	tf.CustomerID = customerID
	tf.CustomerName = ptrOrNil(customerName)
	return tf
}

// resolveCustomer finds or creates the customer a row names. Lookup order:
// external id first, then case-insensitive name; a name match with a supplied
// external id backfills the id onto the existing record so later files can
// match it directly. No match creates the customer.
func (e *Engine) resolveCustomer(ctx context.Context, companyID uuid.UUID, row TransformedRow) (*uuid.UUID, string) {
	externalID := strings.TrimSpace(row.Fields[FieldCustomerNumber])
	name := strings.TrimSpace(row.Fields[FieldCustomerName])
	if externalID == "" && name == "" {
		return nil, ""
	}

	if externalID != "" {
		customer, err := e.store.GetCustomerByExternalID(ctx, companyID, externalID)
		if err == nil {
			return &customer.ID, customer.Name
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			e.logger.Warn("customer lookup by external id failed", "row", row.RowNumber, "error", err)
			return nil, name
		}
	}

	if name != "" {
		customer, err := e.store.GetCustomerByName(ctx, companyID, name)
		if err == nil {
			if externalID != "" && customer.ExternalID == nil {
				if err := e.store.SetCustomerExternalID(ctx, companyID, customer.ID, externalID); err != nil {
					e.logger.Warn("customer external id backfill failed", "row", row.RowNumber, "error", err)
				}
			}
			return &customer.ID, customer.Name
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			e.logger.Warn("customer lookup by name failed", "row", row.RowNumber, "error", err)
			return nil, name
		}
	}

	createName := name
	if createName == "" {
		createName = "Customer " + externalID
	}
	created, err := e.store.CreateCustomer(ctx, store.CreateCustomerParams{
		CompanyID:  companyID,
		Name:       createName,
		ExternalID: ptrOrNil(externalID),
		City:       ptrOrNil(row.Fields[FieldCustomerCity]),
		State:      ptrOrNil(row.Fields[FieldCustomerState]),
	})
	if err != nil {
		e.logger.Warn("customer create failed", "row", row.RowNumber, "error", err)
		return nil, name
	}
	return &created.ID, created.Name
}

func (r *ImportResult) addSkip(rowNumber int, message string) {
	r.Skipped++
	r.addError(rowNumber, message, ActionSkipped)
}

func (r *ImportResult) addFailure(rowNumber int, message, action string) {
	r.Failed++
	r.addError(rowNumber, message, action)
}

func (r *ImportResult) addError(rowNumber int, message, action string) {
	if len(r.Errors) >= maxReportedErrors {
		return
	}
	r.Errors = append(r.Errors, RowError{Row: rowNumber, Error: message, Action: action})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func ptrOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseIntField(value string) *int {
	cleaned := cleanNumeric(value)
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt64Field(value string) *int64 {
	cleaned := cleanNumeric(value)
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		// Odometer exports sometimes carry decimals; round them down.
		if f, ferr := strconv.ParseFloat(cleaned, 64); ferr == nil {
			v := int64(f)
			return &v
		}
		return nil
	}
	return &parsed
}

func parseFloatField(value string) *float64 {
	cleaned := cleanNumeric(value)
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func cleanNumeric(value string) string {
	return strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(value))
}

var dateFormats = []string{"2006-01-02", "01/02/2006", "1/2/2006", "2006/01/02", "01-02-2006", "1-2-2006"}

func parseFlexibleDate(value string) *time.Time {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil
	}
	for _, format := range dateFormats {
		parsed, err := time.Parse(format, raw)
		if err != nil {
			continue
		}
		date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		return &date
	}
	return nil
}
