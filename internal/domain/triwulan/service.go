package triwulan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/domain/roles"
)

type RoleResolver interface {
	Resolve(ctx context.Context) (roles.RoleSets, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

const notifyWinner = "triwulan_winner"

type Service struct {
	store    StoreAPI
	roles    RoleResolver
	notifier Notifier
}

func NewService(store StoreAPI, resolver RoleResolver, notifier Notifier) *Service {
	return &Service{store: store, roles: resolver, notifier: notifier}
}

func (s *Service) Candidates(ctx context.Context, key periods.QuarterKey) ([]Candidate, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListCandidates(ctx, key)
}

func (s *Service) Nominate(ctx context.Context, key periods.QuarterKey, userID, nominatedBy, reason string) (Candidate, error) {
	if err := key.Validate(); err != nil {
		return Candidate{}, err
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLength {
		return Candidate{}, ErrReasonTooLong
	}
	exists, err := s.store.ProfileExists(ctx, userID)
	if err != nil {
		return Candidate{}, err
	}
	if !exists {
		return Candidate{}, ErrUserNotFound
	}
	return s.store.InsertCandidate(ctx, key, userID, nominatedBy, reason)
}

func (s *Service) RemoveCandidate(ctx context.Context, key periods.QuarterKey, candidateID string) error {
	found, err := s.store.DeleteCandidate(ctx, key, candidateID)
	if err != nil {
		return err
	}
	if !found {
		return ErrCandidateNotFound
	}
	return nil
}

// Vote records the voter's single pick for the quarter.
func (s *Service) Vote(ctx context.Context, key periods.QuarterKey, voterID, candidateID string) (Vote, error) {
	candidate, err := s.eligibleCandidate(ctx, key, voterID, candidateID)
	if err != nil {
		return Vote{}, err
	}
	return s.store.InsertVote(ctx, key, voterID, candidate.ID)
}

// MyVote returns the voter's pick, or ok=false when none was cast.
func (s *Service) MyVote(ctx context.Context, key periods.QuarterKey, voterID string) (Vote, bool, error) {
	v, err := s.store.VoteFor(ctx, key, voterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vote{}, false, nil
	}
	if err != nil {
		return Vote{}, false, err
	}
	return v, true, nil
}

// Rate stores the voter's 13 criterion scores for one candidate. A voter can
// rate at most MaxRatedCandidates distinct candidates; re-rating one of them
// replaces the scores.
func (s *Service) Rate(ctx context.Context, key periods.QuarterKey, voterID, candidateID string, scores []int) (Rating, error) {
	if err := ValidateScores(scores); err != nil {
		return Rating{}, err
	}
	candidate, err := s.eligibleCandidate(ctx, key, voterID, candidateID)
	if err != nil {
		return Rating{}, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return Rating{}, err
	}
	defer tx.Rollback(ctx)

	rated, err := s.store.RatedCandidatesTx(ctx, tx, key, voterID)
	if err != nil {
		return Rating{}, fmt.Errorf("load ratings: %w", err)
	}
	if !containsID(rated, candidate.ID) && len(rated) >= MaxRatedCandidates {
		return Rating{}, ErrTooManyRatings
	}
	out, err := s.store.UpsertRatingTx(ctx, tx, key, Rating{VoterID: voterID, CandidateID: candidate.ID, Scores: scores})
	if err != nil {
		return Rating{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Rating{}, err
	}
	return out, nil
}

func (s *Service) MyRatings(ctx context.Context, key periods.QuarterKey, voterID string) ([]Rating, error) {
	return s.store.RatingsByVoter(ctx, key, voterID)
}

func (s *Service) MyProgress(ctx context.Context, key periods.QuarterKey, voterID string) (Progress, error) {
	candidates, err := s.store.ListCandidates(ctx, key)
	if err != nil {
		return Progress{}, err
	}
	ratings, err := s.store.RatingsByVoter(ctx, key, voterID)
	if err != nil {
		return Progress{}, err
	}
	_, voted, err := s.MyVote(ctx, key, voterID)
	if err != nil {
		return Progress{}, err
	}
	rateable := RateableCandidates(candidates, voterID)
	rated, done := Completed(ratings, rateable)
	return Progress{
		UserID:    voterID,
		HasVoted:  voted,
		Rated:     rated,
		Required:  RequiredRatings(rateable),
		Completed: done,
	}, nil
}

// Scores returns the view's aggregates ordered for display.
func (s *Service) Scores(ctx context.Context, key periods.QuarterKey) ([]Score, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	scores, err := s.store.Scores(ctx, key)
	if err != nil {
		return nil, err
	}
	SortScores(scores)
	return scores, nil
}

// Overview lists completion per eligible voter. Admins are left out.
func (s *Service) Overview(ctx context.Context, key periods.QuarterKey) (Overview, error) {
	if err := key.Validate(); err != nil {
		return Overview{}, err
	}
	sets, err := s.roles.Resolve(ctx)
	if err != nil {
		return Overview{}, err
	}
	voters, err := s.store.ListVoters(ctx)
	if err != nil {
		return Overview{}, err
	}
	candidates, err := s.store.ListCandidates(ctx, key)
	if err != nil {
		return Overview{}, err
	}
	ratings, err := s.store.RatingsForQuarter(ctx, key)
	if err != nil {
		return Overview{}, err
	}
	votedIDs, err := s.store.VoterIDs(ctx, key)
	if err != nil {
		return Overview{}, err
	}

	byVoter := map[string][]Rating{}
	for _, r := range ratings {
		byVoter[r.VoterID] = append(byVoter[r.VoterID], r)
	}
	voted := map[string]bool{}
	for _, id := range votedIDs {
		voted[id] = true
	}

	out := Overview{Key: key.String(), Candidates: len(candidates)}
	for _, v := range voters {
		if sets.IsAdmin(v.UserID) {
			continue
		}
		rateable := RateableCandidates(candidates, v.UserID)
		rated, done := Completed(byVoter[v.UserID], rateable)
		out.Progress = append(out.Progress, Progress{
			UserID:    v.UserID,
			FullName:  v.FullName,
			HasVoted:  voted[v.UserID],
			Rated:     rated,
			Required:  RequiredRatings(rateable),
			Completed: done,
		})
		if done {
			out.Completed++
		}
	}
	out.Voters = len(out.Progress)
	if out.Voters > 0 {
		out.Rate = float64(out.Completed) / float64(out.Voters) * 100
	}
	return out, nil
}

// DecideWinner records the quarter's winner. An empty candidateID picks the
// top of the score ranking.
func (s *Service) DecideWinner(ctx context.Context, key periods.QuarterKey, candidateID, decidedBy string) (Winner, error) {
	scores, err := s.Scores(ctx, key)
	if err != nil {
		return Winner{}, err
	}
	var pick *Score
	for i := range scores {
		if candidateID == "" || scores[i].CandidateID == candidateID {
			pick = &scores[i]
			break
		}
	}
	if pick == nil {
		if candidateID != "" {
			return Winner{}, ErrCandidateNotFound
		}
		return Winner{}, ErrNoCandidates
	}
	if candidateID == "" && pick.NumRaters == 0 {
		return Winner{}, ErrNoCandidates
	}

	winner, err := s.store.UpsertWinner(ctx, Winner{
		Year:        key.Year,
		Quarter:     key.Quarter,
		CandidateID: pick.CandidateID,
		UserID:      pick.UserID,
		FinalScore:  pick.FinalScore,
		DecidedBy:   decidedBy,
	})
	if err != nil {
		return Winner{}, err
	}
	if s.notifier != nil {
		body := fmt.Sprintf("Selamat, Anda terpilih sebagai pegawai terbaik triwulan %s.", key)
		if err := s.notifier.Create(ctx, winner.UserID, notifyWinner, "Pegawai terbaik triwulan", body); err != nil {
			slog.Warn("winner notification failed", "userId", winner.UserID, "err", err)
		}
	}
	return winner, nil
}

func (s *Service) Winner(ctx context.Context, key periods.QuarterKey) (Winner, error) {
	return s.store.Winner(ctx, key)
}

func (s *Service) SetDeficiency(ctx context.Context, key periods.QuarterKey, candidateID string, month int, note string) (Deficiency, error) {
	if !containsMonth(key.Months(), month) {
		return Deficiency{}, ErrMonthOutsideQuarter
	}
	note = strings.TrimSpace(note)
	if len(note) > MaxNoteLength {
		return Deficiency{}, ErrNoteTooLong
	}
	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Deficiency{}, err
	}
	if candidate.Key() != key {
		return Deficiency{}, ErrCandidateNotFound
	}
	return s.store.UpsertDeficiency(ctx, candidateID, month, note)
}

func (s *Service) Deficiencies(ctx context.Context, key periods.QuarterKey) ([]Deficiency, error) {
	return s.store.ListDeficiencies(ctx, key)
}

func (s *Service) eligibleCandidate(ctx context.Context, key periods.QuarterKey, voterID, candidateID string) (Candidate, error) {
	if err := key.Validate(); err != nil {
		return Candidate{}, err
	}
	admin, err := s.roles.IsAdmin(ctx, voterID)
	if err != nil {
		return Candidate{}, err
	}
	if admin {
		return Candidate{}, ErrNotEligible
	}
	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	if candidate.Key() != key {
		return Candidate{}, ErrCandidateNotFound
	}
	if candidate.UserID == voterID {
		return Candidate{}, ErrSelfVote
	}
	return candidate, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsMonth(months []int, month int) bool {
	for _, m := range months {
		if m == month {
			return true
		}
	}
	return false
}
