package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Truck struct {
	ID              uuid.UUID
	CompanyID       uuid.UUID
	VIN             *string
	UnitID          *string
	TruckNumber     *string
	Year            *int
	Make            *string
	Model           *string
	CustomerID      *uuid.UUID
	CustomerName    *string
	Odometer        *int64
	EngineHours     *float64
	LicensePlate    *string
	InServiceDate   *time.Time
	LocationCode    *string
	FleetAssignment *string
	VehicleClass    *string
	BodyType        *string
	GVWR            *string
	Color           *string
	Engine          map[string]string
	Transmission    map[string]string
	Drivetrain      map[string]string
	Emissions       map[string]string
	Braking         map[string]string
	FuelSystem      map[string]string
	Maintenance     map[string]string
	Body            map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const truckColumns = `id, company_id, vin, unit_id, truck_number, year, make, model,
	customer_id, customer_name, odometer, engine_hours, license_plate, in_service_date,
	location_code, fleet_assignment, vehicle_class, body_type, gvwr, color,
	engine, transmission, drivetrain, emissions, braking, fuel_system, maintenance, body,
	created_at, updated_at`

func scanTruck(row interface{ Scan(...any) error }) (Truck, error) {
	var t Truck
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.VIN, &t.UnitID, &t.TruckNumber, &t.Year, &t.Make, &t.Model,
		&t.CustomerID, &t.CustomerName, &t.Odometer, &t.EngineHours, &t.LicensePlate, &t.InServiceDate,
		&t.LocationCode, &t.FleetAssignment, &t.VehicleClass, &t.BodyType, &t.GVWR, &t.Color,
		&t.Engine, &t.Transmission, &t.Drivetrain, &t.Emissions, &t.Braking, &t.FuelSystem, &t.Maintenance, &t.Body,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// GetTruckByVIN looks up by the company's natural key. VINs are stored
// upper-cased; the caller may pass either case.
func (s *Store) GetTruckByVIN(ctx context.Context, companyID uuid.UUID, vin string) (Truck, error) {
	return scanTruck(s.pool.QueryRow(ctx, `
		SELECT `+truckColumns+`
		FROM trucks
		WHERE company_id = $1 AND vin = $2
	`, companyID, strings.ToUpper(strings.TrimSpace(vin))))
}

type TruckFields struct {
	UnitID          *string
	TruckNumber     *string
	Year            *int
	Make            *string
	Model           *string
	CustomerID      *uuid.UUID
	CustomerName    *string
	Odometer        *int64
	EngineHours     *float64
	LicensePlate    *string
	InServiceDate   *time.Time
	LocationCode    *string
	FleetAssignment *string
	VehicleClass    *string
	BodyType        *string
	GVWR            *string
	Color           *string
	Subsystems      map[string]map[string]string
}

func (f TruckFields) subsystem(name string) map[string]string {
	if f.Subsystems == nil {
		return map[string]string{}
	}
	if m, ok := f.Subsystems[name]; ok {
		return m
	}
	return map[string]string{}
}

type CreateTruckParams struct {
	CompanyID uuid.UUID
	VIN       string
	TruckFields
}

func (s *Store) CreateTruck(ctx context.Context, params CreateTruckParams) (Truck, error) {
	return scanTruck(s.pool.QueryRow(ctx, `
		INSERT INTO trucks (
			company_id, vin, unit_id, truck_number, year, make, model,
			customer_id, customer_name, odometer, engine_hours, license_plate, in_service_date,
			location_code, fleet_assignment, vehicle_class, body_type, gvwr, color,
			engine, transmission, drivetrain, emissions, braking, fuel_system, maintenance, body
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27
		)
		RETURNING `+truckColumns,
		params.CompanyID, strings.ToUpper(strings.TrimSpace(params.VIN)),
		params.UnitID, params.TruckNumber, params.Year, params.Make, params.Model,
		params.CustomerID, params.CustomerName, params.Odometer, params.EngineHours,
		params.LicensePlate, params.InServiceDate,
		params.LocationCode, params.FleetAssignment, params.VehicleClass, params.BodyType,
		params.GVWR, params.Color,
		params.subsystem("engine"), params.subsystem("transmission"), params.subsystem("drivetrain"),
		params.subsystem("emissions"), params.subsystem("braking"), params.subsystem("fuel_system"),
		params.subsystem("maintenance"), params.subsystem("body"),
	))
}

type UpdateTruckParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	TruckFields
}

// UpdateTruck writes everything except the identity fields (company_id, vin).
// Scalar nils keep the stored value, and subsystem objects are merged into the
// existing jsonb rather than replacing it, so a sparse import row never erases
// previously-known data.
func (s *Store) UpdateTruck(ctx context.Context, params UpdateTruckParams) (Truck, error) {
	return scanTruck(s.pool.QueryRow(ctx, `
		UPDATE trucks SET
			unit_id          = COALESCE($3, unit_id),
			truck_number     = COALESCE($4, truck_number),
			year             = COALESCE($5, year),
			make             = COALESCE($6, make),
			model            = COALESCE($7, model),
			customer_id      = COALESCE($8, customer_id),
			customer_name    = COALESCE($9, customer_name),
			odometer         = COALESCE($10, odometer),
			engine_hours     = COALESCE($11, engine_hours),
			license_plate    = COALESCE($12, license_plate),
			in_service_date  = COALESCE($13, in_service_date),
			location_code    = COALESCE($14, location_code),
			fleet_assignment = COALESCE($15, fleet_assignment),
			vehicle_class    = COALESCE($16, vehicle_class),
			body_type        = COALESCE($17, body_type),
			gvwr             = COALESCE($18, gvwr),
			color            = COALESCE($19, color),
			engine       = COALESCE(engine, '{}'::jsonb) || $20,
			transmission = COALESCE(transmission, '{}'::jsonb) || $21,
			drivetrain   = COALESCE(drivetrain, '{}'::jsonb) || $22,
			emissions    = COALESCE(emissions, '{}'::jsonb) || $23,
			braking      = COALESCE(braking, '{}'::jsonb) || $24,
			fuel_system  = COALESCE(fuel_system, '{}'::jsonb) || $25,
			maintenance  = COALESCE(maintenance, '{}'::jsonb) || $26,
			body         = COALESCE(body, '{}'::jsonb) || $27,
			updated_at   = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+truckColumns,
		params.ID, params.CompanyID,
		params.UnitID, params.TruckNumber, params.Year, params.Make, params.Model,
		params.CustomerID, params.CustomerName, params.Odometer, params.EngineHours,
		params.LicensePlate, params.InServiceDate,
		params.LocationCode, params.FleetAssignment, params.VehicleClass, params.BodyType,
		params.GVWR, params.Color,
		params.subsystem("engine"), params.subsystem("transmission"), params.subsystem("drivetrain"),
		params.subsystem("emissions"), params.subsystem("braking"), params.subsystem("fuel_system"),
		params.subsystem("maintenance"), params.subsystem("body"),
	))
}

func (s *Store) ListTrucks(ctx context.Context, companyID uuid.UUID) ([]Truck, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+truckColumns+`
		FROM trucks
		WHERE company_id = $1
		ORDER BY vin NULLS LAST, truck_number
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trucks []Truck
	for rows.Next() {
		t, err := scanTruck(rows)
		if err != nil {
			return nil, err
		}
		trucks = append(trucks, t)
	}
	return trucks, rows.Err()
}
