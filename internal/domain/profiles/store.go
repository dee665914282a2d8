package profiles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedbackportal/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const profileColumns = `id::text, email, username, full_name, position, department, avatar_url,
  allow_public_view, last_login, created_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.Username, &p.FullName, &p.Position, &p.Department, &p.AvatarURL,
		&p.AllowPublicView, &p.LastLogin, &p.CreatedAt)
	return p, err
}

func (s *Store) Get(ctx context.Context, userID string) (Profile, error) {
	p, err := scanProfile(s.DB.QueryRow(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Profile, int, error) {
	where := " WHERE true"
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where += fmt.Sprintf(" AND (lower(full_name) LIKE $%d OR lower(email) LIKE $%d OR lower(username) LIKE $%d)", len(args), len(args), len(args))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		where += fmt.Sprintf(" AND department = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM profiles"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + profileColumns + " FROM profiles" + where +
		fmt.Sprintf(" ORDER BY full_name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) Departments(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT DISTINCT department FROM profiles WHERE department <> ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.Strings(out)
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, in CreateInput, passwordHash string) (Profile, error) {
	p, err := scanProfile(s.DB.QueryRow(ctx, `
    INSERT INTO profiles (email, username, full_name, position, department, password_hash)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING `+profileColumns,
		in.Email, in.Username, in.FullName, in.Position, in.Department, passwordHash))
	if db.IsUniqueViolation(err) {
		return Profile{}, ErrEmailTaken
	}
	return p, err
}

// Update writes the given columns. Keys come from the service, never from clients.
func (s *Store) Update(ctx context.Context, userID string, fields map[string]any) (Profile, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, fields[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE profiles SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), profileColumns)
	p, err := scanProfile(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return Profile{}, ErrEmailTaken
	}
	return p, err
}

func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM profiles WHERE id = $1", userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
