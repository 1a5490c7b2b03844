package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	Name       string
	ExternalID *string
	City       *string
	State      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const customerColumns = `id, company_id, name, external_id, city, state, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.ExternalID, &c.City, &c.State, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) GetCustomerByExternalID(ctx context.Context, companyID uuid.UUID, externalID string) (Customer, error) {
	return scanCustomer(s.pool.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE company_id = $1 AND external_id = $2
	`, companyID, externalID))
}

// GetCustomerByName matches case-insensitively on the exact name.
func (s *Store) GetCustomerByName(ctx context.Context, companyID uuid.UUID, name string) (Customer, error) {
	return scanCustomer(s.pool.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE company_id = $1 AND lower(name) = lower($2)
		ORDER BY created_at
		LIMIT 1
	`, companyID, name))
}

type CreateCustomerParams struct {
	CompanyID  uuid.UUID
	Name       string
	ExternalID *string
	City       *string
	State      *string
}

func (s *Store) CreateCustomer(ctx context.Context, params CreateCustomerParams) (Customer, error) {
	return scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, name, external_id, city, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		params.CompanyID, params.Name, params.ExternalID, params.City, params.State))
}

// SetCustomerExternalID backfills an external id onto a customer that was
// matched by name and does not have one yet.
func (s *Store) SetCustomerExternalID(ctx context.Context, companyID, customerID uuid.UUID, externalID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE customers
		SET external_id = $3, updated_at = now()
		WHERE company_id = $1 AND id = $2 AND external_id IS NULL
	`, companyID, customerID, externalID)
	return err
}

func (s *Store) ListCustomers(ctx context.Context, companyID uuid.UUID) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
