package triwulan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/domain/roles"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeStore struct {
	profiles   map[string]string
	candidates map[string]Candidate
	votes      map[string]Vote
	ratings    map[string]Rating
	scores     []Score
	winner     *Winner
	defs       []Deficiency
	tx         *fakeTx
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:   map[string]string{},
		candidates: map[string]Candidate{},
		votes:      map[string]Vote{},
		ratings:    map[string]Rating{},
	}
}

func (f *fakeStore) BeginTx(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

func (f *fakeStore) ProfileExists(_ context.Context, userID string) (bool, error) {
	_, ok := f.profiles[userID]
	return ok, nil
}

func (f *fakeStore) ListCandidates(_ context.Context, key periods.QuarterKey) ([]Candidate, error) {
	var out []Candidate
	for _, c := range f.candidates {
		if c.Key() == key {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCandidate(_ context.Context, id string) (Candidate, error) {
	c, ok := f.candidates[id]
	if !ok {
		return Candidate{}, ErrCandidateNotFound
	}
	return c, nil
}

func (f *fakeStore) InsertCandidate(_ context.Context, key periods.QuarterKey, userID, nominatedBy, reason string) (Candidate, error) {
	for _, c := range f.candidates {
		if c.Key() == key && c.UserID == userID {
			return Candidate{}, ErrCandidateExists
		}
	}
	c := Candidate{ID: fmt.Sprintf("cand-%s", userID), Year: key.Year, Quarter: key.Quarter, UserID: userID,
		FullName: f.profiles[userID], NominatedBy: nominatedBy, Reason: reason}
	f.candidates[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteCandidate(_ context.Context, key periods.QuarterKey, id string) (bool, error) {
	c, ok := f.candidates[id]
	if !ok || c.Key() != key {
		return false, nil
	}
	delete(f.candidates, id)
	return true, nil
}

func (f *fakeStore) InsertVote(_ context.Context, key periods.QuarterKey, voterID, candidateID string) (Vote, error) {
	k := key.String() + voterID
	if _, ok := f.votes[k]; ok {
		return Vote{}, ErrAlreadyVoted
	}
	v := Vote{ID: "vote-" + voterID, VoterID: voterID, CandidateID: candidateID}
	f.votes[k] = v
	return v, nil
}

func (f *fakeStore) VoteFor(_ context.Context, key periods.QuarterKey, voterID string) (Vote, error) {
	v, ok := f.votes[key.String()+voterID]
	if !ok {
		return Vote{}, pgx.ErrNoRows
	}
	return v, nil
}

func (f *fakeStore) VoterIDs(context.Context, periods.QuarterKey) ([]string, error) {
	var out []string
	for _, v := range f.votes {
		out = append(out, v.VoterID)
	}
	return out, nil
}

func (f *fakeStore) RatedCandidatesTx(_ context.Context, _ pgx.Tx, _ periods.QuarterKey, voterID string) ([]string, error) {
	var out []string
	for _, r := range f.ratings {
		if r.VoterID == voterID {
			out = append(out, r.CandidateID)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertRatingTx(_ context.Context, _ pgx.Tx, _ periods.QuarterKey, r Rating) (Rating, error) {
	f.ratings[r.VoterID+"/"+r.CandidateID] = r
	return r, nil
}

func (f *fakeStore) RatingsByVoter(_ context.Context, _ periods.QuarterKey, voterID string) ([]Rating, error) {
	var out []Rating
	for _, r := range f.ratings {
		if r.VoterID == voterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) RatingsForQuarter(context.Context, periods.QuarterKey) ([]Rating, error) {
	var out []Rating
	for _, r := range f.ratings {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Scores(context.Context, periods.QuarterKey) ([]Score, error) {
	return append([]Score(nil), f.scores...), nil
}

func (f *fakeStore) UpsertWinner(_ context.Context, w Winner) (Winner, error) {
	f.winner = &w
	return w, nil
}

func (f *fakeStore) Winner(context.Context, periods.QuarterKey) (Winner, error) {
	if f.winner == nil {
		return Winner{}, ErrWinnerNotFound
	}
	return *f.winner, nil
}

func (f *fakeStore) ListVoters(context.Context) ([]Voter, error) {
	var out []Voter
	for id, name := range f.profiles {
		out = append(out, Voter{UserID: id, FullName: name})
	}
	return out, nil
}

func (f *fakeStore) UpsertDeficiency(_ context.Context, candidateID string, month int, note string) (Deficiency, error) {
	d := Deficiency{CandidateID: candidateID, Month: month, Note: note}
	f.defs = append(f.defs, d)
	return d, nil
}

func (f *fakeStore) ListDeficiencies(context.Context, periods.QuarterKey) ([]Deficiency, error) {
	return f.defs, nil
}

type fakeResolver struct {
	admins []string
	err    error
}

func (r fakeResolver) Resolve(context.Context) (roles.RoleSets, error) {
	return roles.RoleSets{AdminIDs: r.admins}, r.err
}

func (r fakeResolver) IsAdmin(_ context.Context, userID string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for _, id := range r.admins {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotifier struct {
	users []string
}

func (n *fakeNotifier) Create(_ context.Context, userID, _, _, _ string) error {
	n.users = append(n.users, userID)
	return nil
}

var q3 = periods.QuarterKey{Year: 2025, Quarter: 3}

func seededService(t *testing.T, candidates ...string) (*Service, *fakeStore, *fakeNotifier) {
	t.Helper()
	store := newFakeStore()
	for _, id := range []string{"admin", "voter", "v2", "c1", "c2", "c3", "c4", "c5", "c6"} {
		store.profiles[id] = "Nama " + id
	}
	notifier := &fakeNotifier{}
	svc := NewService(store, fakeResolver{admins: []string{"admin"}}, notifier)
	for _, id := range candidates {
		if _, err := svc.Nominate(context.Background(), q3, id, "admin", "kinerja baik"); err != nil {
			t.Fatalf("nominate %s: %v", id, err)
		}
	}
	return svc, store, notifier
}

func TestNominateRejectsDuplicatesAndUnknownUsers(t *testing.T) {
	svc, _, _ := seededService(t, "c1")
	if _, err := svc.Nominate(context.Background(), q3, "c1", "admin", ""); !errors.Is(err, ErrCandidateExists) {
		t.Fatalf("expected duplicate candidate, got %v", err)
	}
	if _, err := svc.Nominate(context.Background(), q3, "ghost", "admin", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}
	if _, err := svc.Nominate(context.Background(), periods.QuarterKey{Year: 2025, Quarter: 5}, "c2", "admin", ""); !errors.Is(err, periods.ErrInvalidQuarter) {
		t.Fatalf("expected invalid quarter, got %v", err)
	}
	if err := svc.RemoveCandidate(context.Background(), q3, "cand-c1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RemoveCandidate(context.Background(), q3, "cand-c1"); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVoteOncePerQuarterAndAdminsExcluded(t *testing.T) {
	svc, _, _ := seededService(t, "c1", "c2")
	ctx := context.Background()

	if _, err := svc.Vote(ctx, q3, "voter", "cand-c1"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := svc.Vote(ctx, q3, "voter", "cand-c2"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if _, err := svc.Vote(ctx, q3, "admin", "cand-c1"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected admin excluded, got %v", err)
	}
	if _, err := svc.Vote(ctx, q3, "c1", "cand-c1"); !errors.Is(err, ErrSelfVote) {
		t.Fatalf("expected self vote rejected, got %v", err)
	}
	other := periods.QuarterKey{Year: 2025, Quarter: 2}
	if _, err := svc.Vote(ctx, other, "v2", "cand-c1"); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected candidate of another quarter rejected, got %v", err)
	}
	v, ok, err := svc.MyVote(ctx, q3, "voter")
	if err != nil || !ok || v.CandidateID != "cand-c1" {
		t.Fatalf("unexpected vote %+v %v %v", v, ok, err)
	}
	if _, ok, _ := svc.MyVote(ctx, q3, "v2"); ok {
		t.Fatal("expected no vote for v2")
	}
}

func TestRateCapsDistinctCandidates(t *testing.T) {
	svc, store, _ := seededService(t, "c1", "c2", "c3", "c4", "c5", "c6")
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		if _, err := svc.Rate(ctx, q3, "voter", "cand-"+id, fullScores(8)); err != nil {
			t.Fatalf("rate %s: %v", id, err)
		}
	}
	if _, err := svc.Rate(ctx, q3, "voter", "cand-c6", fullScores(8)); !errors.Is(err, ErrTooManyRatings) {
		t.Fatalf("expected cap, got %v", err)
	}
	if store.tx.committed {
		t.Fatal("rejected rating must not commit")
	}
	if _, err := svc.Rate(ctx, q3, "voter", "cand-c1", fullScores(10)); err != nil {
		t.Fatalf("re-rating should replace: %v", err)
	}
	if got := store.ratings["voter/cand-c1"].Scores[0]; got != 10 {
		t.Fatalf("expected replaced scores, got %d", got)
	}
	if _, err := svc.Rate(ctx, q3, "admin", "cand-c1", fullScores(8)); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected admin excluded, got %v", err)
	}

	progress, err := svc.MyProgress(ctx, q3, "voter")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !progress.Completed || progress.Rated != 5 || progress.Required != 5 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestOverviewSkipsAdmins(t *testing.T) {
	svc, _, _ := seededService(t, "c1", "c2")
	ctx := context.Background()
	for _, id := range []string{"c1", "c2"} {
		if _, err := svc.Rate(ctx, q3, "voter", "cand-"+id, fullScores(6)); err != nil {
			t.Fatalf("rate: %v", err)
		}
	}

	ov, err := svc.Overview(ctx, q3)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Voters != 8 || ov.Completed != 1 || ov.Candidates != 2 {
		t.Fatalf("unexpected overview %+v", ov)
	}
	for _, p := range ov.Progress {
		if p.UserID == "admin" {
			t.Fatal("admin must not be listed as voter")
		}
	}

	failing := NewService(newFakeStore(), fakeResolver{err: errors.New("roles down")}, nil)
	if _, err := failing.Overview(ctx, q3); err == nil {
		t.Fatal("expected role error to propagate")
	}
}

func TestCandidateVoterCompletesWithoutOwnCandidacy(t *testing.T) {
	svc, _, _ := seededService(t, "c1", "c2", "c3")
	ctx := context.Background()
	for _, id := range []string{"c2", "c3"} {
		if _, err := svc.Rate(ctx, q3, "c1", "cand-"+id, fullScores(7)); err != nil {
			t.Fatalf("rate %s: %v", id, err)
		}
	}
	if _, err := svc.Rate(ctx, q3, "c1", "cand-c1", fullScores(7)); !errors.Is(err, ErrSelfVote) {
		t.Fatalf("expected self rating rejected, got %v", err)
	}

	progress, err := svc.MyProgress(ctx, q3, "c1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !progress.Completed || progress.Rated != 2 || progress.Required != 2 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	ov, err := svc.Overview(ctx, q3)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	var found bool
	for _, p := range ov.Progress {
		switch p.UserID {
		case "c1":
			found = true
			if !p.Completed || p.Required != 2 {
				t.Fatalf("expected c1 complete in overview, got %+v", p)
			}
		case "voter":
			if p.Required != 3 {
				t.Fatalf("non-candidate voter should need all 3, got %+v", p)
			}
		}
	}
	if !found || ov.Completed != 1 || ov.Rate != 12.5 {
		t.Fatalf("unexpected overview %+v", ov)
	}
}

func TestDecideWinnerPicksTopScore(t *testing.T) {
	svc, store, notifier := seededService(t, "c1", "c2")
	store.scores = []Score{
		{CandidateID: "cand-c1", UserID: "c1", FinalScore: 70, NumRaters: 4},
		{CandidateID: "cand-c2", UserID: "c2", FinalScore: 70, NumRaters: 6},
	}

	w, err := svc.DecideWinner(context.Background(), q3, "", "admin")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if w.UserID != "c2" || len(notifier.users) != 1 || notifier.users[0] != "c2" {
		t.Fatalf("expected c2 as winner, got %+v %v", w, notifier.users)
	}

	w, err = svc.DecideWinner(context.Background(), q3, "cand-c1", "admin")
	if err != nil || w.UserID != "c1" {
		t.Fatalf("explicit winner: %+v %v", w, err)
	}
	if _, err := svc.DecideWinner(context.Background(), q3, "cand-x", "admin"); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	store.scores = []Score{{CandidateID: "cand-c1", UserID: "c1"}}
	if _, err := svc.DecideWinner(context.Background(), q3, "", "admin"); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected no rated candidates, got %v", err)
	}
}

func TestSetDeficiencyChecksMonth(t *testing.T) {
	svc, store, _ := seededService(t, "c1")
	if _, err := svc.SetDeficiency(context.Background(), q3, "cand-c1", 3, "x"); !errors.Is(err, ErrMonthOutsideQuarter) {
		t.Fatalf("expected month error, got %v", err)
	}
	if _, err := svc.SetDeficiency(context.Background(), q3, "cand-c1", 8, " terlambat "); err != nil {
		t.Fatalf("set deficiency: %v", err)
	}
	if len(store.defs) != 1 || store.defs[0].Note != "terlambat" {
		t.Fatalf("unexpected deficiencies %+v", store.defs)
	}
}
