package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedbackportal/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListRoles(ctx context.Context) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT user_id::text, role
    FROM user_roles
    WHERE role IN ('admin', 'supervisor')
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.UserID, &a.Role); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) RoleForUser(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, "SELECT role FROM user_roles WHERE user_id = $1", userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.RoleUser, nil
	}
	return role, err
}

// SetRole stores the role; the plain user role is represented by the absence of a row.
func (s *Store) SetRole(ctx context.Context, userID, role string) error {
	if role == auth.RoleUser {
		_, err := s.DB.Exec(ctx, "DELETE FROM user_roles WHERE user_id = $1", userID)
		return err
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (user_id, role)
    VALUES ($1, $2)
    ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
  `, userID, role)
	return err
}

func (s *Store) ProfileExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)", userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
