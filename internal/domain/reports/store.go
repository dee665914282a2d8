package reports

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"feedbackportal/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) count(ctx context.Context, sql string, args ...any) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) TotalUsers(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM profiles")
}

// ActivePeriod returns nil when no period is active.
func (s *Store) ActivePeriod(ctx context.Context) (*PeriodSummary, error) {
	var p PeriodSummary
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, month, year
    FROM assessment_periods
    WHERE is_active
    ORDER BY year DESC, month DESC
    LIMIT 1
  `).Scan(&p.ID, &p.Month, &p.Year)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ActiveAssignments(ctx context.Context) (int, int, error) {
	var total, completed int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE a.is_completed)
    FROM assessment_assignments a
    JOIN assessment_periods p ON p.id = a.period_id
    WHERE p.is_active
  `).Scan(&total, &completed)
	return total, completed, err
}

func (s *Store) PinsInMonth(ctx context.Context, year, month int) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM employee_pins WHERE year = $1 AND month = $2", year, month)
}

func (s *Store) TriwulanActivity(ctx context.Context, year, quarter int) (int, int, error) {
	var candidates, raters int
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM triwulan_candidates WHERE year = $1 AND quarter = $2),
      (SELECT COUNT(DISTINCT voter_id) FROM triwulan_ratings WHERE year = $1 AND quarter = $2)
  `, year, quarter).Scan(&candidates, &raters)
	return candidates, raters, err
}

func (s *Store) FailedJobsSince(ctx context.Context, days int) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM job_runs
    WHERE status = 'failed' AND created_at > now() - make_interval(days => $1)
  `, days)
}

func (s *Store) PendingAssignments(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1)
    FROM assessment_assignments a
    JOIN assessment_periods p ON p.id = a.period_id
    WHERE a.assessor_id = $1 AND NOT a.is_completed AND p.is_active
  `, userID)
}

func (s *Store) FeedbackReceived(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(DISTINCT assessor_id)
    FROM assessment_assignments
    WHERE assessee_id = $1 AND is_completed
  `, userID)
}

func (s *Store) PinsReceivedInMonth(ctx context.Context, userID string, year, month int) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM employee_pins WHERE receiver_id = $1 AND year = $2 AND month = $3
  `, userID, year, month)
}

func (s *Store) UnreadNotifications(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND read_at IS NULL", userID)
}
