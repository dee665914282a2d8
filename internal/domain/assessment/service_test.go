package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
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
	assignments map[string]Assignment
	responses   map[string][]ResponseRow
	team        []TeamMember
	activeID    string
	tx          *fakeTx
	ensured     []AssignmentInput
	insertErr   error
	reminders   int
	pending     []PendingAssignment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assignments: map[string]Assignment{},
		responses:   map[string][]ResponseRow{},
		activeID:    "period-1",
	}
}

func (f *fakeStore) BeginTx(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

func (f *fakeStore) ListAssignmentsForAssessor(_ context.Context, assessorID, _ string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range f.assignments {
		if a.AssessorID == assessorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAssignment(_ context.Context, id string) (Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (f *fakeStore) ResponsesForAssignment(_ context.Context, id string) ([]ResponseRow, error) {
	return f.responses[id], nil
}

func (f *fakeStore) DeleteResponsesTx(_ context.Context, _ pgx.Tx, id string) error {
	delete(f.responses, id)
	return nil
}

func (f *fakeStore) InsertResponsesTx(_ context.Context, _ pgx.Tx, id string, rows []ResponseRow) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.responses[id] = append(f.responses[id], rows...)
	return nil
}

func (f *fakeStore) MarkCompletedTx(_ context.Context, _ pgx.Tx, id string) error {
	a := f.assignments[id]
	a.IsCompleted = true
	f.assignments[id] = a
	return nil
}

func (f *fakeStore) ProfileDepartment(context.Context, string) (string, error) { return "Keuangan", nil }

func (f *fakeStore) TeamMembers(context.Context, string, string, string) ([]TeamMember, error) {
	return f.team, nil
}

func (f *fakeStore) EnsureAssignment(_ context.Context, assessorID, assesseeID, periodID string) (string, error) {
	f.ensured = append(f.ensured, AssignmentInput{AssessorID: assessorID, AssesseeID: assesseeID})
	id := assessorID + ">" + assesseeID
	if _, ok := f.assignments[id]; !ok {
		f.assignments[id] = Assignment{ID: id, AssessorID: assessorID, AssesseeID: assesseeID, PeriodID: periodID}
	}
	return id, nil
}

func (f *fakeStore) ActivePeriodID(context.Context) (string, error) {
	if f.activeID == "" {
		return "", ErrNoActivePeriod
	}
	return f.activeID, nil
}

func (f *fakeStore) PeriodCompleted(context.Context, string) (bool, error) { return false, nil }

func (f *fakeStore) PeriodProgress(context.Context, string) (int, int, error) { return 4, 1, nil }

func (f *fakeStore) PendingAssignments(context.Context, string) ([]PendingAssignment, error) {
	return f.pending, nil
}

func (f *fakeStore) RecordReminder(context.Context, string, string, string) error {
	f.reminders++
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Create(_ context.Context, userID, ntype, _, _ string) error {
	n.sent = append(n.sent, userID+":"+ntype)
	return nil
}

type reverseCrypto struct{}

func (reverseCrypto) EncryptString(value string) ([]byte, error) {
	out := []byte(value)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (c reverseCrypto) DecryptString(value []byte) (string, error) {
	plain, _ := c.EncryptString(string(value))
	return string(plain), nil
}

func TestExpandSubmissionAppliesRatingToEveryIndicator(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	rows, err := svc.ExpandSubmission(Submission{Ratings: []AspectRating{
		{Aspect: "Kolaboratif", Rating: 80, Comment: "  solid  "},
		{Aspect: "akuntabel", Rating: 70},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kolaboratif, _ := LookupAspect("kolaboratif")
	akuntabel, _ := LookupAspect("akuntabel")
	if len(rows) != len(kolaboratif.Indicators)+len(akuntabel.Indicators) {
		t.Fatalf("unexpected row count %d", len(rows))
	}
	for i, row := range rows[:len(kolaboratif.Indicators)] {
		if row.Aspect != "Kolaboratif" || row.Rating != 80 {
			t.Fatalf("unexpected row %+v", row)
		}
		if i == 0 && string(row.Comment) != "solid" {
			t.Fatalf("expected trimmed comment on first row, got %q", row.Comment)
		}
		if i > 0 && row.Comment != nil {
			t.Fatal("expected comment only on the first indicator row")
		}
	}
}

func TestExpandSubmissionValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	tests := []struct {
		name string
		sub  Submission
		want error
	}{
		{name: "empty", sub: Submission{}, want: ErrEmptySubmission},
		{name: "unknown aspect", sub: Submission{Ratings: []AspectRating{{Aspect: "Galak", Rating: 50}}}, want: ErrUnknownAspect},
		{name: "zero rating", sub: Submission{Ratings: []AspectRating{{Aspect: "Loyal", Rating: 0}}}, want: ErrRatingOutOfRange},
		{name: "too high", sub: Submission{Ratings: []AspectRating{{Aspect: "Loyal", Rating: 101}}}, want: ErrRatingOutOfRange},
		{name: "duplicate", sub: Submission{Ratings: []AspectRating{{Aspect: "Loyal", Rating: 50}, {Aspect: "loyal", Rating: 60}}}, want: ErrDuplicateAspect},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ExpandSubmission(tc.sub); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitReplacesResponsesAndNotifies(t *testing.T) {
	store := newFakeStore()
	store.assignments["a1"] = Assignment{ID: "a1", AssessorID: "u1", AssesseeID: "u2"}
	store.responses["a1"] = []ResponseRow{{Aspect: "Loyal", Indicator: "old", Rating: 10}}
	notifier := &fakeNotifier{}
	svc := NewService(store, reverseCrypto{}, notifier)

	err := svc.Submit(context.Background(), "u1", "a1", Submission{Ratings: []AspectRating{{Aspect: "Adaptif", Rating: 88, Comment: "cepat belajar"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range store.responses["a1"] {
		if row.Aspect != "Adaptif" {
			t.Fatalf("expected old responses replaced, found %+v", row)
		}
	}
	if !store.assignments["a1"].IsCompleted || !store.tx.committed {
		t.Fatal("expected completed assignment and committed tx")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "u2:feedback_received" {
		t.Fatalf("unexpected notifications %v", notifier.sent)
	}

	detail, err := svc.Detail(context.Background(), "u1", "a1")
	if err != nil {
		t.Fatalf("detail error: %v", err)
	}
	if len(detail.Ratings) != 1 || detail.Ratings[0].Comment != "cepat belajar" || detail.Ratings[0].Rating != 88 {
		t.Fatalf("unexpected detail %+v", detail.Ratings)
	}
}

func TestSubmitRollsBackOnInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.assignments["a1"] = Assignment{ID: "a1", AssessorID: "u1", AssesseeID: "u2"}
	store.insertErr = errors.New("insert failed")
	svc := NewService(store, nil, nil)

	if err := svc.Submit(context.Background(), "u1", "a1", Submission{Ratings: []AspectRating{{Aspect: "Loyal", Rating: 60}}}); err == nil {
		t.Fatal("expected error")
	}
	if store.tx.committed || !store.tx.rolledBack || store.assignments["a1"].IsCompleted {
		t.Fatal("expected rollback and no completion")
	}
}

func TestSubmitRejectsForeignAndClosedAssignments(t *testing.T) {
	store := newFakeStore()
	store.assignments["a1"] = Assignment{ID: "a1", AssessorID: "u1", AssesseeID: "u2"}
	store.assignments["a2"] = Assignment{ID: "a2", AssessorID: "u1", AssesseeID: "u3", PeriodComplete: true}
	svc := NewService(store, nil, nil)
	sub := Submission{Ratings: []AspectRating{{Aspect: "Loyal", Rating: 60}}}

	if err := svc.Submit(context.Background(), "u9", "a1", sub); !errors.Is(err, ErrNotAssessor) {
		t.Fatalf("expected not assessor, got %v", err)
	}
	if err := svc.Submit(context.Background(), "u1", "a2", sub); !errors.Is(err, ErrPeriodClosed) {
		t.Fatalf("expected period closed, got %v", err)
	}
	if err := svc.Submit(context.Background(), "u1", "missing", sub); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRateTeamMemberCreatesAssignmentLazily(t *testing.T) {
	store := newFakeStore()
	store.team = []TeamMember{{UserID: "u2", FullName: "Budi"}}
	svc := NewService(store, nil, nil)
	sub := Submission{Ratings: []AspectRating{{Aspect: "Harmonis", Rating: 90}}}

	id, err := svc.RateTeamMember(context.Background(), "sup", "u2", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "sup>u2" || len(store.ensured) != 1 || !store.assignments[id].IsCompleted {
		t.Fatalf("unexpected state id=%s ensured=%v", id, store.ensured)
	}

	if _, err := svc.RateTeamMember(context.Background(), "sup", "stranger", sub); !errors.Is(err, ErrNotTeamMember) {
		t.Fatalf("expected not team member, got %v", err)
	}

	store.activeID = ""
	if _, err := svc.RateTeamMember(context.Background(), "sup", "u2", sub); !errors.Is(err, ErrNoActivePeriod) {
		t.Fatalf("expected no active period, got %v", err)
	}
}

func TestSendRemindersLogsEachReminder(t *testing.T) {
	store := newFakeStore()
	store.pending = []PendingAssignment{
		{AssignmentID: "a1", AssessorID: "u1", AssesseeName: "Budi", PeriodID: "period-1"},
		{AssignmentID: "a2", AssessorID: "u3", AssesseeName: "Citra", PeriodID: "period-1"},
	}
	notifier := &fakeNotifier{}
	svc := NewService(store, nil, notifier)

	sent, err := svc.SendReminders(context.Background())
	if err != nil || sent != 2 || store.reminders != 2 || len(notifier.sent) != 2 {
		t.Fatalf("unexpected reminder result sent=%d err=%v logs=%d", sent, err, store.reminders)
	}

	store.activeID = ""
	if sent, err := svc.SendReminders(context.Background()); err != nil || sent != 0 {
		t.Fatalf("expected no-op without active period, got %d %v", sent, err)
	}
}

func TestProgressRate(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	p, err := svc.Progress(context.Background(), "")
	if err != nil || p.PeriodID != "period-1" || p.Rate != 25 {
		t.Fatalf("unexpected progress %+v %v", p, err)
	}
}
