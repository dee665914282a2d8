package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/platform/config"
)

// Seed makes sure a bootstrap admin account exists so the portal can be
// administered before any role rows are imported.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM profiles WHERE email = $1", email).Scan(&id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if id == "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		username := strings.SplitN(email, "@", 2)[0]
		if err := pool.QueryRow(ctx, `
    INSERT INTO profiles (email, username, full_name, password_hash)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, email, username, "Administrator", hash).Scan(&id); err != nil {
			return err
		}
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO user_roles (user_id, role)
    VALUES ($1, $2)
    ON CONFLICT (user_id) DO NOTHING
  `, id, auth.RoleAdmin)
	return err
}
