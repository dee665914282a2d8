package assessment

import (
	"context"
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

const assignmentSelect = `
    SELECT a.id::text, a.assessor_id::text, a.assessee_id::text,
           p.full_name, p.position, p.department,
           a.period_id::text, ap.month, ap.year, ap.is_completed,
           a.is_completed, a.completed_at
    FROM assessment_assignments a
    JOIN profiles p ON p.id = a.assessee_id
    JOIN assessment_periods ap ON ap.id = a.period_id
`

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) ListAssignmentsForAssessor(ctx context.Context, assessorID, periodID string) ([]Assignment, error) {
	query := assignmentSelect + " WHERE a.assessor_id = $1"
	args := []any{assessorID}
	if periodID != "" {
		query += " AND a.period_id = $2"
		args = append(args, periodID)
	}
	query += " ORDER BY ap.year DESC, ap.month DESC, p.full_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID string) (Assignment, error) {
	a, err := scanAssignment(s.DB.QueryRow(ctx, assignmentSelect+" WHERE a.id = $1", assignmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}

func (s *Store) ResponsesForAssignment(ctx context.Context, assignmentID string) ([]ResponseRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT aspect, indicator, rating, comment
    FROM feedback_responses
    WHERE assignment_id = $1
    ORDER BY aspect, indicator
  `, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResponseRow
	for rows.Next() {
		var r ResponseRow
		if err := rows.Scan(&r.Aspect, &r.Indicator, &r.Rating, &r.Comment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteResponsesTx(ctx context.Context, tx pgx.Tx, assignmentID string) error {
	_, err := tx.Exec(ctx, "DELETE FROM feedback_responses WHERE assignment_id = $1", assignmentID)
	return err
}

func (s *Store) InsertResponsesTx(ctx context.Context, tx pgx.Tx, assignmentID string, rows []ResponseRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
      INSERT INTO feedback_responses (assignment_id, aspect, indicator, rating, comment)
      VALUES ($1,$2,$3,$4,$5)
    `, assignmentID, r.Aspect, r.Indicator, r.Rating, r.Comment)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// MarkCompletedTx keeps the first completion timestamp.
func (s *Store) MarkCompletedTx(ctx context.Context, tx pgx.Tx, assignmentID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE assessment_assignments
    SET is_completed = true, completed_at = COALESCE(completed_at, now())
    WHERE id = $1
  `, assignmentID)
	return err
}

func (s *Store) ProfileDepartment(ctx context.Context, userID string) (string, error) {
	var department string
	if err := s.DB.QueryRow(ctx, "SELECT department FROM profiles WHERE id = $1", userID).Scan(&department); err != nil {
		return "", err
	}
	return department, nil
}

func (s *Store) TeamMembers(ctx context.Context, supervisorID, department, periodID string) ([]TeamMember, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id::text, p.full_name, p.position, p.department,
           COALESCE(a.id::text, ''), COALESCE(a.is_completed, false), a.completed_at
    FROM profiles p
    LEFT JOIN assessment_assignments a
      ON a.assessee_id = p.id AND a.assessor_id = $1 AND a.period_id = $3
    WHERE p.department = $2 AND p.id <> $1
    ORDER BY p.full_name
  `, supervisorID, department, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Position, &m.Department, &m.AssignmentID, &m.IsCompleted, &m.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) EnsureAssignment(ctx context.Context, assessorID, assesseeID, periodID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO assessment_assignments (assessor_id, assessee_id, period_id)
    VALUES ($1,$2,$3)
    ON CONFLICT (assessor_id, assessee_id, period_id) DO UPDATE SET assessor_id = EXCLUDED.assessor_id
    RETURNING id::text
  `, assessorID, assesseeID, periodID).Scan(&id)
	return id, err
}

func (s *Store) ActivePeriodID(ctx context.Context) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id::text FROM assessment_periods
    WHERE is_active
    ORDER BY year DESC, month DESC
    LIMIT 1
  `).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoActivePeriod
	}
	return id, err
}

func (s *Store) PeriodCompleted(ctx context.Context, periodID string) (bool, error) {
	var completed bool
	if err := s.DB.QueryRow(ctx, "SELECT is_completed FROM assessment_periods WHERE id = $1", periodID).Scan(&completed); err != nil {
		return false, err
	}
	return completed, nil
}

func (s *Store) PeriodProgress(ctx context.Context, periodID string) (int, int, error) {
	var total, completed int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE is_completed)
    FROM assessment_assignments
    WHERE period_id = $1
  `, periodID).Scan(&total, &completed); err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

func (s *Store) PendingAssignments(ctx context.Context, periodID string) ([]PendingAssignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.id::text, a.assessor_id::text, p.full_name, a.period_id::text
    FROM assessment_assignments a
    JOIN profiles p ON p.id = a.assessee_id
    WHERE a.period_id = $1 AND NOT a.is_completed
      AND NOT EXISTS (
        SELECT 1 FROM reminder_logs r
        WHERE r.assignment_id = a.id AND r.sent_at > now() - interval '1 day'
      )
    ORDER BY a.assessor_id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingAssignment
	for rows.Next() {
		var p PendingAssignment
		if err := rows.Scan(&p.AssignmentID, &p.AssessorID, &p.AssesseeName, &p.PeriodID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) RecordReminder(ctx context.Context, assignmentID, periodID, userID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO reminder_logs (assignment_id, period_id, user_id)
    VALUES ($1,$2,$3)
  `, assignmentID, periodID, userID)
	return err
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.AssessorID, &a.AssesseeID, &a.AssesseeName, &a.AssesseeTitle, &a.Department,
		&a.PeriodID, &a.PeriodMonth, &a.PeriodYear, &a.PeriodComplete, &a.IsCompleted, &a.CompletedAt)
	return a, err
}
