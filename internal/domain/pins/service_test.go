package pins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

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

type allowanceKey struct {
	user string
	week Week
}

// fakeStore applies writes only when the transaction commits.
type fakeStore struct {
	profiles   map[string]string
	allowances map[allowanceKey]Allowance
	pins       []Pin
	pending    []func()
	tx         *fakeTx
	consumeErr error
}

func newFakeStore(users ...string) *fakeStore {
	profiles := map[string]string{}
	for _, u := range users {
		profiles[u] = strings.ToUpper(u)
	}
	return &fakeStore{profiles: profiles, allowances: map[allowanceKey]Allowance{}}
}

type committingTx struct {
	*fakeTx
	store *fakeStore
}

func (t committingTx) Commit(ctx context.Context) error {
	for _, apply := range t.store.pending {
		apply()
	}
	t.store.pending = nil
	return t.fakeTx.Commit(ctx)
}

func (t committingTx) Rollback(ctx context.Context) error {
	if !t.fakeTx.committed {
		t.store.pending = nil
	}
	return t.fakeTx.Rollback(ctx)
}

func (f *fakeStore) BeginTx(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return committingTx{fakeTx: f.tx, store: f}, nil
}

func (f *fakeStore) EnsureAllowanceTx(_ context.Context, _ pgx.Tx, userID string, week Week) error {
	key := allowanceKey{userID, week}
	if _, ok := f.allowances[key]; !ok {
		f.allowances[key] = Allowance{WeekNumber: week.Number, Year: week.Year, PinsRemaining: WeeklyAllowance}
	}
	return nil
}

func (f *fakeStore) LockAllowanceTx(_ context.Context, _ pgx.Tx, userID string, week Week) (Allowance, error) {
	return f.allowances[allowanceKey{userID, week}], nil
}

func (f *fakeStore) ProfileExistsTx(_ context.Context, _ pgx.Tx, userID string) (bool, error) {
	_, ok := f.profiles[userID]
	return ok, nil
}

func (f *fakeStore) PinExistsTx(_ context.Context, _ pgx.Tx, giverID, receiverID string, week Week) (bool, error) {
	for _, p := range f.pins {
		if p.GiverID == giverID && p.ReceiverID == receiverID && p.WeekNumber == week.Number && p.Year == week.Year {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertPinTx(_ context.Context, _ pgx.Tx, pin Pin) (Pin, error) {
	pin.ID = fmt.Sprintf("pin-%d", len(f.pins)+len(f.pending)+1)
	f.pending = append(f.pending, func() { f.pins = append(f.pins, pin) })
	return pin, nil
}

func (f *fakeStore) ConsumeAllowanceTx(_ context.Context, _ pgx.Tx, userID string, week Week) (Allowance, error) {
	if f.consumeErr != nil {
		return Allowance{}, f.consumeErr
	}
	key := allowanceKey{userID, week}
	next := f.allowances[key]
	if next.PinsRemaining <= 0 {
		return Allowance{}, ErrNoPinsLeft
	}
	next.PinsRemaining--
	next.PinsUsed++
	f.pending = append(f.pending, func() { f.allowances[key] = next })
	return next, nil
}

func (f *fakeStore) Allowance(_ context.Context, userID string, week Week) (Allowance, error) {
	a, ok := f.allowances[allowanceKey{userID, week}]
	if !ok {
		return Allowance{WeekNumber: week.Number, Year: week.Year, PinsRemaining: WeeklyAllowance}, nil
	}
	return a, nil
}

func (f *fakeStore) PinsGiven(context.Context, string, int, int) ([]Pin, error)    { return f.pins, nil }
func (f *fakeStore) PinsReceived(context.Context, string, int, int) ([]Pin, error) { return f.pins, nil }

func (f *fakeStore) Leaderboard(_ context.Context, year, month, _ int, _ string) ([]LeaderboardEntry, error) {
	return []LeaderboardEntry{{Rank: 1, UserID: fmt.Sprintf("%d-%d", year, month)}}, nil
}

func (f *fakeStore) ProfileName(_ context.Context, userID string) (string, error) {
	return f.profiles[userID], nil
}

type fakeNotifier struct {
	count int
}

func (n *fakeNotifier) Create(context.Context, string, string, string, string) error {
	n.count++
	return nil
}

func fixedService(store *fakeStore, notifier Notifier, at time.Time) *Service {
	svc := NewService(store, notifier, time.UTC)
	svc.now = func() time.Time { return at }
	return svc
}

func TestGivePinStopsAfterWeeklyAllowance(t *testing.T) {
	store := newFakeStore("giver", "r1", "r2", "r3", "r4", "r5")
	notifier := &fakeNotifier{}
	svc := fixedService(store, notifier, time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC))

	for i, receiver := range []string{"r1", "r2", "r3", "r4"} {
		res, err := svc.GivePin(context.Background(), "giver", receiver, "terima kasih")
		if err != nil {
			t.Fatalf("pin %d: unexpected error: %v", i+1, err)
		}
		if res.Allowance.PinsRemaining+res.Allowance.PinsUsed != WeeklyAllowance {
			t.Fatalf("allowance invariant broken: %+v", res.Allowance)
		}
		if res.Allowance.PinsUsed != i+1 {
			t.Fatalf("expected %d used, got %+v", i+1, res.Allowance)
		}
	}

	_, err := svc.GivePin(context.Background(), "giver", "r5", "")
	if !errors.Is(err, ErrNoPinsLeft) {
		t.Fatalf("expected no pins left, got %v", err)
	}
	if !strings.Contains(err.Error(), "sudah menggunakan semua pin") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(store.pins) != 4 || notifier.count != 4 {
		t.Fatalf("expected 4 pins and notifications, got %d and %d", len(store.pins), notifier.count)
	}

	next := fixedService(store, nil, time.Date(2025, 7, 21, 9, 0, 0, 0, time.UTC))
	if _, err := next.GivePin(context.Background(), "giver", "r5", ""); err != nil {
		t.Fatalf("expected fresh allowance next week, got %v", err)
	}
}

func TestGivePinRejectsDuplicateInSameWeek(t *testing.T) {
	store := newFakeStore("giver", "r1")
	svc := fixedService(store, nil, time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC))

	if _, err := svc.GivePin(context.Background(), "giver", "r1", "hebat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GivePin(context.Background(), "giver", "r1", "lagi"); !errors.Is(err, ErrDuplicatePin) {
		t.Fatalf("expected duplicate pin error, got %v", err)
	}
	if len(store.pins) != 1 {
		t.Fatalf("expected exactly one persisted pin, got %d", len(store.pins))
	}
	allowance, _ := svc.Allowance(context.Background(), "giver")
	if allowance.PinsUsed != 1 || allowance.PinsRemaining != 3 {
		t.Fatalf("duplicate must not consume allowance: %+v", allowance)
	}
}

func TestGivePinValidation(t *testing.T) {
	store := newFakeStore("giver", "r1")
	svc := fixedService(store, nil, time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC))
	tests := []struct {
		name     string
		receiver string
		message  string
		want     error
	}{
		{name: "self", receiver: "giver", want: ErrSelfPin},
		{name: "blank receiver", receiver: "  ", want: ErrReceiverRequired},
		{name: "unknown receiver", receiver: "ghost", want: ErrReceiverNotFound},
		{name: "long message", receiver: "r1", message: strings.Repeat("a", MaxMessageLength+1), want: ErrMessageTooLong},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.GivePin(context.Background(), "giver", tc.receiver, tc.message); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(store.pins) != 0 {
		t.Fatalf("expected no pins, got %d", len(store.pins))
	}
}

func TestGivePinRollsBackWhenAllowanceUpdateFails(t *testing.T) {
	store := newFakeStore("giver", "r1")
	store.consumeErr = errors.New("update failed")
	svc := fixedService(store, nil, time.Date(2025, 7, 16, 9, 0, 0, 0, time.UTC))

	if _, err := svc.GivePin(context.Background(), "giver", "r1", ""); err == nil {
		t.Fatal("expected error")
	}
	if store.tx.committed || !store.tx.rolledBack || len(store.pins) != 0 {
		t.Fatalf("expected rollback discarding the pin, pins=%d", len(store.pins))
	}
}

func TestLeaderboardDefaultsToCurrentMonth(t *testing.T) {
	svc := fixedService(newFakeStore(), nil, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	entries, err := svc.Leaderboard(context.Background(), 0, 0)
	if err != nil || len(entries) != 1 || entries[0].UserID != "2025-3" {
		t.Fatalf("unexpected leaderboard %+v %v", entries, err)
	}
	if _, err := svc.Leaderboard(context.Background(), 2025, 13); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
}
