package results

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FeedbackRows(ctx context.Context, assesseeID, periodID string) ([]FeedbackRow, error) {
	query := `
    SELECT a.assessor_id::text, a.assessee_id::text, a.period_id::text, r.aspect, r.indicator, r.rating
    FROM feedback_responses r
    JOIN assessment_assignments a ON a.id = r.assignment_id
    WHERE a.assessee_id = $1`
	args := []any{assesseeID}
	if periodID != "" {
		query += " AND a.period_id = $2"
		args = append(args, periodID)
	}
	return s.queryRows(ctx, query, args...)
}

func (s *Store) FeedbackRowsForPeriod(ctx context.Context, periodID string) ([]FeedbackRow, error) {
	return s.queryRows(ctx, `
    SELECT a.assessor_id::text, a.assessee_id::text, a.period_id::text, r.aspect, r.indicator, r.rating
    FROM feedback_responses r
    JOIN assessment_assignments a ON a.id = r.assignment_id
    WHERE a.period_id = $1
  `, periodID)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]FeedbackRow, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeedbackRow
	for rows.Next() {
		var r FeedbackRow
		var rating int
		if err := rows.Scan(&r.AssessorID, &r.AssesseeID, &r.PeriodID, &r.Aspect, &r.Indicator, &rating); err != nil {
			return nil, err
		}
		r.Rating = float64(rating)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, full_name, position, department
    FROM profiles WHERE id = $1
  `, userID).Scan(&p.UserID, &p.FullName, &p.Position, &p.Department)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	return p, err
}

func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.DB.Query(ctx, "SELECT id::text, full_name, position, department FROM profiles ORDER BY full_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.FullName, &p.Position, &p.Department); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) PublicView(ctx context.Context, userID string) (bool, error) {
	var allowed bool
	err := s.DB.QueryRow(ctx, "SELECT allow_public_view FROM profiles WHERE id = $1", userID).Scan(&allowed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrUserNotFound
	}
	return allowed, err
}

func (s *Store) Period(ctx context.Context, periodID string) (PeriodInfo, error) {
	var p PeriodInfo
	err := s.DB.QueryRow(ctx, "SELECT id::text, month, year FROM assessment_periods WHERE id = $1", periodID).Scan(&p.ID, &p.Month, &p.Year)
	if errors.Is(err, pgx.ErrNoRows) {
		return PeriodInfo{}, ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) UpsertHistoryTx(ctx context.Context, tx pgx.Tx, userID, periodID string, overall *float64, totalAssessors int, aspectsJSON []byte) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO assessment_history (user_id, period_id, overall_score, total_assessors, aspects_json)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (user_id, period_id) DO UPDATE
      SET overall_score = EXCLUDED.overall_score,
          total_assessors = EXCLUDED.total_assessors,
          aspects_json = EXCLUDED.aspects_json,
          created_at = now()
  `, userID, periodID, overall, totalAssessors, aspectsJSON)
	return err
}

func (s *Store) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT h.period_id::text, p.month, p.year, h.overall_score::float8, h.total_assessors, h.aspects_json, h.created_at
    FROM assessment_history h
    JOIN assessment_periods p ON p.id = h.period_id
    WHERE h.user_id = $1
    ORDER BY p.year DESC, p.month DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var aspects []byte
		if err := rows.Scan(&h.PeriodID, &h.Month, &h.Year, &h.OverallScore, &h.TotalAssessors, &aspects, &h.CreatedAt); err != nil {
			return nil, err
		}
		if len(aspects) > 0 {
			if err := json.Unmarshal(aspects, &h.Aspects); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) Comments(ctx context.Context, assesseeID, periodID string) ([]EncryptedComment, error) {
	query := `
    SELECT r.aspect, r.comment
    FROM feedback_responses r
    JOIN assessment_assignments a ON a.id = r.assignment_id
    WHERE a.assessee_id = $1 AND r.comment IS NOT NULL`
	args := []any{assesseeID}
	if periodID != "" {
		query += " AND a.period_id = $2"
		args = append(args, periodID)
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EncryptedComment
	for rows.Next() {
		var c EncryptedComment
		if err := rows.Scan(&c.Aspect, &c.Comment); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
