package periods

import (
	"context"
	"errors"
	"time"

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

const periodColumns = "id::text, month, year, start_date, end_date, is_active, is_completed"

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+periodColumns+" FROM assessment_periods ORDER BY year DESC, month DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM assessment_periods WHERE id = $1", periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) ActivePeriod(ctx context.Context) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    SELECT `+periodColumns+`
    FROM assessment_periods
    WHERE is_active
    ORDER BY year DESC, month DESC
    LIMIT 1
  `))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) CreatePeriod(ctx context.Context, in PeriodInput) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    INSERT INTO assessment_periods (month, year, start_date, end_date)
    VALUES ($1,$2,$3,$4)
    RETURNING `+periodColumns,
		in.Month, in.Year, in.StartDate, in.EndDate))
	if db.IsUniqueViolation(err) {
		return Period{}, ErrPeriodExists
	}
	return p, err
}

func (s *Store) CompletePeriodTx(ctx context.Context, tx pgx.Tx, periodID string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE assessment_periods
    SET is_completed = true, is_active = false
    WHERE id = $1
  `, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) ListQuarterRows(ctx context.Context) ([]QuarterRow, error) {
	rows, err := s.DB.Query(ctx, "SELECT year, quarter, start_date, end_date FROM triwulan_periods")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuarterRow
	for rows.Next() {
		var row QuarterRow
		if err := rows.Scan(&row.Key.Year, &row.Key.Quarter, &row.StartDate, &row.EndDate); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) DeactivateAllTx(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, "UPDATE assessment_periods SET is_active = false WHERE is_active")
	return err
}

func (s *Store) ActivatePeriodTx(ctx context.Context, tx pgx.Tx, periodID string) (bool, error) {
	tag, err := tx.Exec(ctx, "UPDATE assessment_periods SET is_active = true WHERE id = $1", periodID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) PeriodIDsForMonthsTx(ctx context.Context, tx pgx.Tx, year int, months []int) ([]string, error) {
	rows, err := tx.Query(ctx, `
    SELECT id::text
    FROM assessment_periods
    WHERE year = $1 AND month = ANY($2::int[])
    ORDER BY month
    FOR UPDATE
  `, year, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) DeleteResponsesTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error {
	_, err := tx.Exec(ctx, `
    DELETE FROM feedback_responses
    WHERE assignment_id IN (
      SELECT id FROM assessment_assignments WHERE period_id = ANY($1::text[]::uuid[])
    )
  `, periodIDs)
	return err
}

func (s *Store) DeleteAssignmentsTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error {
	_, err := tx.Exec(ctx, "DELETE FROM assessment_assignments WHERE period_id = ANY($1::text[]::uuid[])", periodIDs)
	return err
}

func (s *Store) DeleteReminderLogsTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error {
	_, err := tx.Exec(ctx, "DELETE FROM reminder_logs WHERE period_id = ANY($1::text[]::uuid[])", periodIDs)
	return err
}

func (s *Store) DeleteHistoryTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error {
	_, err := tx.Exec(ctx, "DELETE FROM assessment_history WHERE period_id = ANY($1::text[]::uuid[])", periodIDs)
	return err
}

func (s *Store) DeletePeriodsTx(ctx context.Context, tx pgx.Tx, periodIDs []string) (int, error) {
	tag, err := tx.Exec(ctx, "DELETE FROM assessment_periods WHERE id = ANY($1::text[]::uuid[])", periodIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) InsertPeriodIfMissingTx(ctx context.Context, tx pgx.Tx, in PeriodInput) (Period, bool, error) {
	p, err := scanPeriod(tx.QueryRow(ctx, `
    INSERT INTO assessment_periods (month, year, start_date, end_date)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (year, month) DO NOTHING
    RETURNING `+periodColumns,
		in.Month, in.Year, in.StartDate, in.EndDate))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := scanPeriod(tx.QueryRow(ctx, "SELECT "+periodColumns+" FROM assessment_periods WHERE year = $1 AND month = $2", in.Year, in.Month))
		return existing, false, err
	}
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (s *Store) UpsertQuarterTx(ctx context.Context, tx pgx.Tx, key QuarterKey, start, end time.Time) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO triwulan_periods (year, quarter, start_date, end_date)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (year, quarter) DO UPDATE
      SET start_date = EXCLUDED.start_date,
          end_date = EXCLUDED.end_date
  `, key.Year, key.Quarter, start, end)
	return err
}

func (s *Store) DeleteQuarterTx(ctx context.Context, tx pgx.Tx, key QuarterKey) (bool, error) {
	tag, err := tx.Exec(ctx, "DELETE FROM triwulan_periods WHERE year = $1 AND quarter = $2", key.Year, key.Quarter)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Month, &p.Year, &p.StartDate, &p.EndDate, &p.IsActive, &p.IsCompleted)
	return p, err
}
