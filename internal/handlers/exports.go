package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/truckops-platform/api/internal/audit"
	"github.com/truckops-platform/api/internal/httpx"
	"github.com/truckops-platform/api/internal/middleware"
)

func (s *Server) GetExportsTrucksCsv(w http.ResponseWriter, r *http.Request) {
	s.writeExportCSV(w, r, "trucks", "trucks.csv", func(writer *csv.Writer, companyID uuid.UUID) error {
		trucks, err := s.Store.ListTrucks(r.Context(), companyID)
		if err != nil {
			return err
		}
		if err := writer.Write([]string{
			"vin", "truck_number", "year", "make", "model", "customer_name",
			"odometer", "engine_hours", "license_plate", "in_service_date",
			"location_code", "fleet_assignment", "vehicle_class", "body_type", "gvwr", "color",
		}); err != nil {
			return err
		}
		for _, truck := range trucks {
			record := []string{
				derefString(truck.VIN),
				derefString(truck.TruckNumber),
				formatInt(truck.Year),
				derefString(truck.Make),
				derefString(truck.Model),
				derefString(truck.CustomerName),
				formatInt64(truck.Odometer),
				formatFloat(truck.EngineHours),
				derefString(truck.LicensePlate),
				formatDate(truck.InServiceDate),
				derefString(truck.LocationCode),
				derefString(truck.FleetAssignment),
				derefString(truck.VehicleClass),
				derefString(truck.BodyType),
				derefString(truck.GVWR),
				derefString(truck.Color),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) GetExportsCustomersCsv(w http.ResponseWriter, r *http.Request) {
	s.writeExportCSV(w, r, "customers", "customers.csv", func(writer *csv.Writer, companyID uuid.UUID) error {
		customers, err := s.Store.ListCustomers(r.Context(), companyID)
		if err != nil {
			return err
		}
		if err := writer.Write([]string{"name", "external_id", "city", "state"}); err != nil {
			return err
		}
		for _, customer := range customers {
			record := []string{
				customer.Name,
				derefString(customer.ExternalID),
				derefString(customer.City),
				derefString(customer.State),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) writeExportCSV(w http.ResponseWriter, r *http.Request, entityType, filename string, writerFunc func(writer *csv.Writer, companyID uuid.UUID) error) {
	companyID, userID, ok := actorIDs(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	writer := csv.NewWriter(w)
	if err := writerFunc(writer, companyID); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to generate export CSV", nil)
		return
	}
	writer.Flush()
	if writer.Error() != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to stream export CSV", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		CompanyID:  companyID,
		UserID:     &userID,
		Action:     "export.download",
		EntityType: entityType,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata: map[string]any{
			"filename": filename,
			"entity":   entityType,
		},
	})
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
