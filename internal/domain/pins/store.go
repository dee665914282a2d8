package pins

import (
	"context"
	"errors"

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

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) EnsureAllowanceTx(ctx context.Context, tx pgx.Tx, userID string, week Week) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO weekly_pin_allowance (user_id, week_number, year, pins_remaining, pins_used)
    VALUES ($1,$2,$3,$4,0)
    ON CONFLICT (user_id, week_number, year) DO NOTHING
  `, userID, week.Number, week.Year, WeeklyAllowance)
	return err
}

func (s *Store) LockAllowanceTx(ctx context.Context, tx pgx.Tx, userID string, week Week) (Allowance, error) {
	a := Allowance{WeekNumber: week.Number, Year: week.Year}
	err := tx.QueryRow(ctx, `
    SELECT pins_remaining, pins_used
    FROM weekly_pin_allowance
    WHERE user_id = $1 AND week_number = $2 AND year = $3
    FOR UPDATE
  `, userID, week.Number, week.Year).Scan(&a.PinsRemaining, &a.PinsUsed)
	return a, err
}

func (s *Store) ProfileExistsTx(ctx context.Context, tx pgx.Tx, userID string) (bool, error) {
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)", userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) PinExistsTx(ctx context.Context, tx pgx.Tx, giverID, receiverID string, week Week) (bool, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM employee_pins
      WHERE giver_id = $1 AND receiver_id = $2 AND week_number = $3 AND year = $4
    )
  `, giverID, receiverID, week.Number, week.Year).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) InsertPinTx(ctx context.Context, tx pgx.Tx, pin Pin) (Pin, error) {
	err := tx.QueryRow(ctx, `
    INSERT INTO employee_pins (giver_id, receiver_id, week_number, year, month, message)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id::text, created_at
  `, pin.GiverID, pin.ReceiverID, pin.WeekNumber, pin.Year, pin.Month, pin.Message).Scan(&pin.ID, &pin.CreatedAt)
	if db.IsUniqueViolation(err) {
		return Pin{}, ErrDuplicatePin
	}
	return pin, err
}

func (s *Store) ConsumeAllowanceTx(ctx context.Context, tx pgx.Tx, userID string, week Week) (Allowance, error) {
	a := Allowance{WeekNumber: week.Number, Year: week.Year}
	err := tx.QueryRow(ctx, `
    UPDATE weekly_pin_allowance
    SET pins_remaining = pins_remaining - 1,
        pins_used = pins_used + 1,
        updated_at = now()
    WHERE user_id = $1 AND week_number = $2 AND year = $3 AND pins_remaining > 0
    RETURNING pins_remaining, pins_used
  `, userID, week.Number, week.Year).Scan(&a.PinsRemaining, &a.PinsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Allowance{}, ErrNoPinsLeft
	}
	return a, err
}

// Allowance reports the default full allowance when no row exists yet.
func (s *Store) Allowance(ctx context.Context, userID string, week Week) (Allowance, error) {
	a := Allowance{WeekNumber: week.Number, Year: week.Year}
	err := s.DB.QueryRow(ctx, `
    SELECT pins_remaining, pins_used
    FROM weekly_pin_allowance
    WHERE user_id = $1 AND week_number = $2 AND year = $3
  `, userID, week.Number, week.Year).Scan(&a.PinsRemaining, &a.PinsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		a.PinsRemaining = WeeklyAllowance
		return a, nil
	}
	return a, err
}

const pinSelect = `
    SELECT p.id::text, p.giver_id::text, g.full_name, p.receiver_id::text, r.full_name,
           p.week_number, p.year, p.month, p.message, p.created_at
    FROM employee_pins p
    JOIN profiles g ON g.id = p.giver_id
    JOIN profiles r ON r.id = p.receiver_id
`

func (s *Store) PinsGiven(ctx context.Context, userID string, limit, offset int) ([]Pin, error) {
	return s.listPins(ctx, pinSelect+" WHERE p.giver_id = $1 ORDER BY p.created_at DESC LIMIT $2 OFFSET $3", userID, limit, offset)
}

func (s *Store) PinsReceived(ctx context.Context, userID string, limit, offset int) ([]Pin, error) {
	return s.listPins(ctx, pinSelect+" WHERE p.receiver_id = $1 ORDER BY p.created_at DESC LIMIT $2 OFFSET $3", userID, limit, offset)
}

func (s *Store) listPins(ctx context.Context, query string, args ...any) ([]Pin, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pin
	for rows.Next() {
		var p Pin
		if err := rows.Scan(&p.ID, &p.GiverID, &p.GiverName, &p.ReceiverID, &p.ReceiverName,
			&p.WeekNumber, &p.Year, &p.Month, &p.Message, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Leaderboard(ctx context.Context, year, month, limit int, timezone string) ([]LeaderboardEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id::text, r.full_name, r.department, COUNT(p.id)::int AS pins
    FROM employee_pins p
    JOIN profiles r ON r.id = p.receiver_id
    WHERE p.month = $2 AND EXTRACT(YEAR FROM p.created_at AT TIME ZONE $4)::int = $1
    GROUP BY r.id, r.full_name, r.department
    ORDER BY pins DESC, r.full_name
    LIMIT $3
  `, year, month, limit, timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FullName, &e.Department, &e.Pins); err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ProfileName(ctx context.Context, userID string) (string, error) {
	var name string
	if err := s.DB.QueryRow(ctx, "SELECT full_name FROM profiles WHERE id = $1", userID).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}
