package pins

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

const notifyPinReceived = "pin_received"

type Service struct {
	store    StoreAPI
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewService(store StoreAPI, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, notifier: notifier, loc: loc, now: time.Now}
}

func (s *Service) CurrentWeek() Week {
	return WeekOf(s.now(), s.loc)
}

// GivePin checks the allowance, rejects duplicates, inserts the pin and
// consumes one allowance slot in a single transaction. The allowance row is
// locked so concurrent requests from the same giver serialize.
func (s *Service) GivePin(ctx context.Context, giverID, receiverID, message string) (GiveResult, error) {
	receiverID = strings.TrimSpace(receiverID)
	message = strings.TrimSpace(message)
	if receiverID == "" {
		return GiveResult{}, ErrReceiverRequired
	}
	if receiverID == giverID {
		return GiveResult{}, ErrSelfPin
	}
	if len(message) > MaxMessageLength {
		return GiveResult{}, ErrMessageTooLong
	}
	week := s.CurrentWeek()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return GiveResult{}, err
	}
	defer tx.Rollback(ctx)

	if err := s.store.EnsureAllowanceTx(ctx, tx, giverID, week); err != nil {
		return GiveResult{}, fmt.Errorf("ensure allowance: %w", err)
	}
	allowance, err := s.store.LockAllowanceTx(ctx, tx, giverID, week)
	if err != nil {
		return GiveResult{}, fmt.Errorf("lock allowance: %w", err)
	}
	if allowance.PinsRemaining <= 0 {
		return GiveResult{}, ErrNoPinsLeft
	}
	exists, err := s.store.ProfileExistsTx(ctx, tx, receiverID)
	if err != nil {
		return GiveResult{}, err
	}
	if !exists {
		return GiveResult{}, ErrReceiverNotFound
	}
	duplicate, err := s.store.PinExistsTx(ctx, tx, giverID, receiverID, week)
	if err != nil {
		return GiveResult{}, err
	}
	if duplicate {
		return GiveResult{}, ErrDuplicatePin
	}

	pin, err := s.store.InsertPinTx(ctx, tx, Pin{
		GiverID:    giverID,
		ReceiverID: receiverID,
		WeekNumber: week.Number,
		Year:       week.Year,
		Month:      week.Month,
		Message:    message,
	})
	if err != nil {
		return GiveResult{}, err
	}
	allowance, err = s.store.ConsumeAllowanceTx(ctx, tx, giverID, week)
	if err != nil {
		return GiveResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return GiveResult{}, err
	}

	s.notifyReceiver(ctx, pin)
	return GiveResult{Pin: pin, Allowance: allowance}, nil
}

func (s *Service) Allowance(ctx context.Context, userID string) (Allowance, error) {
	return s.store.Allowance(ctx, userID, s.CurrentWeek())
}

func (s *Service) Given(ctx context.Context, userID string, limit, offset int) ([]Pin, error) {
	return s.store.PinsGiven(ctx, userID, limit, offset)
}

func (s *Service) Received(ctx context.Context, userID string, limit, offset int) ([]Pin, error) {
	return s.store.PinsReceived(ctx, userID, limit, offset)
}

// Leaderboard ranks receivers for a calendar month; zero values mean the current month.
func (s *Service) Leaderboard(ctx context.Context, year, month int) ([]LeaderboardEntry, error) {
	now := s.now().In(s.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	return s.store.Leaderboard(ctx, year, month, LeaderboardLimit, s.loc.String())
}

func (s *Service) notifyReceiver(ctx context.Context, pin Pin) {
	if s.notifier == nil {
		return
	}
	giverName, err := s.store.ProfileName(ctx, pin.GiverID)
	if err != nil || giverName == "" {
		giverName = "Rekan kerja"
	}
	body := giverName + " memberikan pin apresiasi untuk Anda."
	if pin.Message != "" {
		body += " Pesan: " + pin.Message
	}
	if err := s.notifier.Create(ctx, pin.ReceiverID, notifyPinReceived, "Anda menerima pin", body); err != nil {
		slog.Warn("pin notification failed", "receiverId", pin.ReceiverID, "err", err)
	}
}
