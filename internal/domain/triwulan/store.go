package triwulan

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const candidateColumns = `c.id::text, c.year, c.quarter, c.user_id::text, p.full_name, p.position, p.department,
  c.reason, COALESCE(c.nominated_by::text, ''), c.created_at`

func scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.Year, &c.Quarter, &c.UserID, &c.FullName, &c.Position, &c.Department,
		&c.Reason, &c.NominatedBy, &c.CreatedAt)
	return c, err
}

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) ProfileExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)", userID).Scan(&exists)
	return exists, err
}

func (s *Store) ListCandidates(ctx context.Context, key periods.QuarterKey) ([]Candidate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+candidateColumns+`
    FROM triwulan_candidates c
    JOIN profiles p ON p.id = c.user_id
    WHERE c.year = $1 AND c.quarter = $2
    ORDER BY p.full_name
  `, key.Year, key.Quarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCandidate(ctx context.Context, candidateID string) (Candidate, error) {
	c, err := scanCandidate(s.DB.QueryRow(ctx, `
    SELECT `+candidateColumns+`
    FROM triwulan_candidates c
    JOIN profiles p ON p.id = c.user_id
    WHERE c.id = $1
  `, candidateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrCandidateNotFound
	}
	return c, err
}

func (s *Store) InsertCandidate(ctx context.Context, key periods.QuarterKey, userID, nominatedBy, reason string) (Candidate, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO triwulan_candidates (year, quarter, user_id, nominated_by, reason)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5)
    RETURNING id::text
  `, key.Year, key.Quarter, userID, nominatedBy, reason).Scan(&id)
	if db.IsUniqueViolation(err) {
		return Candidate{}, ErrCandidateExists
	}
	if err != nil {
		return Candidate{}, err
	}
	return s.GetCandidate(ctx, id)
}

func (s *Store) DeleteCandidate(ctx context.Context, key periods.QuarterKey, candidateID string) (bool, error) {
	cmd, err := s.DB.Exec(ctx, `
    DELETE FROM triwulan_candidates
    WHERE id = $1 AND year = $2 AND quarter = $3
  `, candidateID, key.Year, key.Quarter)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (s *Store) InsertVote(ctx context.Context, key periods.QuarterKey, voterID, candidateID string) (Vote, error) {
	var v Vote
	err := s.DB.QueryRow(ctx, `
    INSERT INTO triwulan_votes (year, quarter, voter_id, candidate_id)
    VALUES ($1, $2, $3, $4)
    RETURNING id::text, voter_id::text, candidate_id::text, created_at
  `, key.Year, key.Quarter, voterID, candidateID).Scan(&v.ID, &v.VoterID, &v.CandidateID, &v.CreatedAt)
	if db.IsUniqueViolation(err) {
		return Vote{}, ErrAlreadyVoted
	}
	return v, err
}

func (s *Store) VoteFor(ctx context.Context, key periods.QuarterKey, voterID string) (Vote, error) {
	var v Vote
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, voter_id::text, candidate_id::text, created_at
    FROM triwulan_votes
    WHERE year = $1 AND quarter = $2 AND voter_id = $3
  `, key.Year, key.Quarter, voterID).Scan(&v.ID, &v.VoterID, &v.CandidateID, &v.CreatedAt)
	return v, err
}

func (s *Store) VoterIDs(ctx context.Context, key periods.QuarterKey) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT voter_id::text FROM triwulan_votes WHERE year = $1 AND quarter = $2
  `, key.Year, key.Quarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ratingLockSQL serializes rating writes of one voter in one quarter until the
// transaction ends. Row locks cannot cover candidates not rated yet.
const ratingLockSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

func ratingLockKey(key periods.QuarterKey, voterID string) string {
	return "triwulan_rating:" + key.String() + ":" + voterID
}

// RatedCandidatesTx takes the voter's rating lock and returns the candidates
// already rated, so the candidate cap holds under concurrent submissions.
func (s *Store) RatedCandidatesTx(ctx context.Context, tx pgx.Tx, key periods.QuarterKey, voterID string) ([]string, error) {
	if _, err := tx.Exec(ctx, ratingLockSQL, ratingLockKey(key, voterID)); err != nil {
		return nil, fmt.Errorf("lock ratings: %w", err)
	}
	rows, err := tx.Query(ctx, `
    SELECT candidate_id::text
    FROM triwulan_ratings
    WHERE year = $1 AND quarter = $2 AND voter_id = $3
  `, key.Year, key.Quarter, voterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRatingTx(ctx context.Context, tx pgx.Tx, key periods.QuarterKey, rating Rating) (Rating, error) {
	out := Rating{VoterID: rating.VoterID, CandidateID: rating.CandidateID}
	err := tx.QueryRow(ctx, `
    INSERT INTO triwulan_ratings (year, quarter, voter_id, candidate_id, scores)
    VALUES ($1, $2, $3, $4, $5::smallint[])
    ON CONFLICT (year, quarter, voter_id, candidate_id)
    DO UPDATE SET scores = EXCLUDED.scores
    RETURNING scores::int[], updated_at
  `, key.Year, key.Quarter, rating.VoterID, rating.CandidateID, rating.Scores).Scan(&out.Scores, &out.UpdatedAt)
	return out, err
}

func (s *Store) RatingsByVoter(ctx context.Context, key periods.QuarterKey, voterID string) ([]Rating, error) {
	return s.queryRatings(ctx, `
    SELECT voter_id::text, candidate_id::text, scores::int[], updated_at
    FROM triwulan_ratings
    WHERE year = $1 AND quarter = $2 AND voter_id = $3
    ORDER BY updated_at
  `, key.Year, key.Quarter, voterID)
}

func (s *Store) RatingsForQuarter(ctx context.Context, key periods.QuarterKey) ([]Rating, error) {
	return s.queryRatings(ctx, `
    SELECT voter_id::text, candidate_id::text, scores::int[], updated_at
    FROM triwulan_ratings
    WHERE year = $1 AND quarter = $2
  `, key.Year, key.Quarter)
}

func (s *Store) queryRatings(ctx context.Context, sql string, args ...any) ([]Rating, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.VoterID, &r.CandidateID, &r.Scores, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Scores(ctx context.Context, key periods.QuarterKey) ([]Score, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT candidate_id::text, user_id::text, full_name, total_points::float8, num_raters, final_score::float8
    FROM triwulan_candidate_scores
    WHERE year = $1 AND quarter = $2
    ORDER BY final_score DESC, num_raters DESC
  `, key.Year, key.Quarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.CandidateID, &sc.UserID, &sc.FullName, &sc.TotalPoints, &sc.NumRaters, &sc.FinalScore); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) UpsertWinner(ctx context.Context, w Winner) (Winner, error) {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO triwulan_winners (year, quarter, candidate_id, user_id, final_score, decided_by)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
    ON CONFLICT (year, quarter)
    DO UPDATE SET candidate_id = EXCLUDED.candidate_id,
                  user_id = EXCLUDED.user_id,
                  final_score = EXCLUDED.final_score,
                  decided_by = EXCLUDED.decided_by,
                  created_at = now()
  `, w.Year, w.Quarter, w.CandidateID, w.UserID, w.FinalScore, w.DecidedBy)
	if err != nil {
		return Winner{}, err
	}
	return s.Winner(ctx, periods.QuarterKey{Year: w.Year, Quarter: w.Quarter})
}

func (s *Store) Winner(ctx context.Context, key periods.QuarterKey) (Winner, error) {
	var w Winner
	err := s.DB.QueryRow(ctx, `
    SELECT w.year, w.quarter, w.candidate_id::text, w.user_id::text, p.full_name,
           w.final_score::float8, COALESCE(w.decided_by::text, ''), w.created_at
    FROM triwulan_winners w
    JOIN profiles p ON p.id = w.user_id
    WHERE w.year = $1 AND w.quarter = $2
  `, key.Year, key.Quarter).Scan(&w.Year, &w.Quarter, &w.CandidateID, &w.UserID, &w.FullName,
		&w.FinalScore, &w.DecidedBy, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Winner{}, ErrWinnerNotFound
	}
	return w, err
}

func (s *Store) ListVoters(ctx context.Context) ([]Voter, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, full_name, department FROM profiles ORDER BY full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Voter
	for rows.Next() {
		var v Voter
		if err := rows.Scan(&v.UserID, &v.FullName, &v.Department); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) UpsertDeficiency(ctx context.Context, candidateID string, month int, note string) (Deficiency, error) {
	var d Deficiency
	err := s.DB.QueryRow(ctx, `
    INSERT INTO triwulan_monthly_deficiencies (year, quarter, candidate_id, month, note)
    SELECT c.year, c.quarter, c.id, $2, $3
    FROM triwulan_candidates c
    WHERE c.id = $1
    ON CONFLICT (candidate_id, month)
    DO UPDATE SET note = EXCLUDED.note
    RETURNING id::text, candidate_id::text, month, note, updated_at
  `, candidateID, month, note).Scan(&d.ID, &d.CandidateID, &d.Month, &d.Note, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deficiency{}, ErrCandidateNotFound
	}
	return d, err
}

func (s *Store) ListDeficiencies(ctx context.Context, key periods.QuarterKey) ([]Deficiency, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, candidate_id::text, month, note, updated_at
    FROM triwulan_monthly_deficiencies
    WHERE year = $1 AND quarter = $2
    ORDER BY candidate_id, month
  `, key.Year, key.Quarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deficiency
	for rows.Next() {
		var d Deficiency
		if err := rows.Scan(&d.ID, &d.CandidateID, &d.Month, &d.Note, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
