package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UserWithCompany struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	CompanySlug  string
	CompanyName  string
}

func (s *Store) ListUsersByEmail(ctx context.Context, email string) ([]UserWithCompany, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.company_id, u.email, u.full_name, u.password_hash, u.is_active, c.slug, c.name
		FROM users u
		JOIN companies c ON c.id = u.company_id
		WHERE lower(u.email) = lower($1)
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserWithCompany
	for rows.Next() {
		var u UserWithCompany
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.Email, &u.FullName, &u.PasswordHash, &u.IsActive, &u.CompanySlug, &u.CompanyName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type CreateSessionParams struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CSRFToken string
	ExpiresAt time.Time
}

func (s *Store) CreateSession(ctx context.Context, params CreateSessionParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (company_id, user_id, token_hash, csrf_token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, params.CompanyID, params.UserID, params.TokenHash, params.CSRFToken, params.ExpiresAt).Scan(&id)
	return id, err
}

type SessionPrincipal struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	CompanyID   uuid.UUID
	Email       string
	FullName    string
	CompanySlug string
	CompanyName string
	CSRFToken   string
	ExpiresAt   time.Time
}

func (s *Store) GetSessionPrincipalByTokenHash(ctx context.Context, tokenHash string) (SessionPrincipal, error) {
	var p SessionPrincipal
	err := s.pool.QueryRow(ctx, `
		SELECT se.id, u.id, u.company_id, u.email, u.full_name, c.slug, c.name, se.csrf_token, se.expires_at
		FROM sessions se
		JOIN users u ON u.id = se.user_id
		JOIN companies c ON c.id = u.company_id
		WHERE se.token_hash = $1
		  AND se.revoked_at IS NULL
		  AND se.expires_at > now()
		  AND u.is_active
	`, tokenHash).Scan(&p.SessionID, &p.UserID, &p.CompanyID, &p.Email, &p.FullName, &p.CompanySlug, &p.CompanyName, &p.CSRFToken, &p.ExpiresAt)
	return p, err
}

func (s *Store) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE sessions SET last_seen_at = now() WHERE id = $1`, sessionID)
	return err
}

func (s *Store) RevokeSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET revoked_at = now()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash)
	return err
}

func (s *Store) RevokeSessionByID(ctx context.Context, companyID, sessionID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET revoked_at = now()
		WHERE id = $2 AND company_id = $1 AND revoked_at IS NULL
	`, companyID, sessionID)
	return err
}

func (s *Store) UserHasPermission(ctx context.Context, companyID, userID uuid.UUID, permission string) (bool, error) {
	var has bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_permissions
			WHERE company_id = $1 AND user_id = $2 AND permission = $3
		)
	`, companyID, userID, permission).Scan(&has)
	return has, err
}
