package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/truckops-platform/api/internal/auth"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	email := envOrDefault("SEED_ADMIN_EMAIL", "admin@local.truckops")
	password := envOrDefault("SEED_ADMIN_PASSWORD", "Admin12345!")
	fullName := envOrDefault("SEED_ADMIN_NAME", "Local Admin")
	companySlug := envOrDefault("SEED_COMPANY_SLUG", "local-dev")
	companyName := envOrDefault("SEED_COMPANY_NAME", "Local Dev Fleet")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	var companyID uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO companies (slug, name)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, companySlug, companyName).Scan(&companyID); err != nil {
		log.Fatalf("upsert company: %v", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (company_id, email, full_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT DO NOTHING
	`, companyID, email, fullName, passwordHash)
	if err != nil {
		log.Fatalf("insert user: %v", err)
	}

	var userID uuid.UUID
	if err := tx.QueryRow(ctx, `
		SELECT id FROM users WHERE company_id = $1 AND lower(email) = lower($2)
	`, companyID, email).Scan(&userID); err != nil {
		log.Fatalf("find user: %v", err)
	}

	adminPermissions := []string{
		"imports.read",
		"imports.write",
		"trucks.read",
		"customers.read",
	}
	for _, perm := range adminPermissions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_permissions (company_id, user_id, permission)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, companyID, userID, perm); err != nil {
			log.Fatalf("insert permission %s: %v", perm, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit tx: %v", err)
	}

	fmt.Printf("Seed completed. Company=%s, admin=%s, password=%s\n", companySlug, email, password)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
