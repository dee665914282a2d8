package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type StoreAPI interface {
	TotalUsers(ctx context.Context) (int, error)
	ActivePeriod(ctx context.Context) (*PeriodSummary, error)
	ActiveAssignments(ctx context.Context) (int, int, error)
	PinsInMonth(ctx context.Context, year, month int) (int, error)
	TriwulanActivity(ctx context.Context, year, quarter int) (int, int, error)
	FailedJobsSince(ctx context.Context, days int) (int, error)
	PendingAssignments(ctx context.Context, userID string) (int, error)
	FeedbackReceived(ctx context.Context, userID string) (int, error)
	PinsReceivedInMonth(ctx context.Context, userID string, year, month int) (int, error)
	UnreadNotifications(ctx context.Context, userID string) (int, error)
}

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, now: func() time.Time { return time.Now().In(loc) }}
}

// Dashboard runs the admin counters concurrently; the first error cancels the rest.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()
	year, month := now.Year(), int(now.Month())
	quarter := (month-1)/3 + 1

	var out Dashboard
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.store.TotalUsers(gCtx)
		out.TotalUsers = total
		return err
	})
	g.Go(func() error {
		period, err := s.store.ActivePeriod(gCtx)
		out.ActivePeriod = period
		return err
	})
	g.Go(func() error {
		total, completed, err := s.store.ActiveAssignments(gCtx)
		out.AssignmentsTotal, out.AssignmentsCompleted = total, completed
		return err
	})
	g.Go(func() error {
		pins, err := s.store.PinsInMonth(gCtx, year, month)
		out.PinsThisMonth = pins
		return err
	})
	g.Go(func() error {
		candidates, raters, err := s.store.TriwulanActivity(gCtx, year, quarter)
		out.TriwulanCandidates, out.TriwulanRaters = candidates, raters
		return err
	})
	g.Go(func() error {
		failed, err := s.store.FailedJobsSince(gCtx, 7)
		out.FailedJobs7d = failed
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	if out.AssignmentsTotal > 0 {
		out.CompletionRate = float64(out.AssignmentsCompleted) / float64(out.AssignmentsTotal) * 100
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	now := s.now()
	var out Summary
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.PendingAssignments(gCtx, userID)
		out.PendingAssignments = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.FeedbackReceived(gCtx, userID)
		out.FeedbackReceived = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.PinsReceivedInMonth(gCtx, userID, now.Year(), int(now.Month()))
		out.PinsReceivedMonth = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.UnreadNotifications(gCtx, userID)
		out.UnreadNotifications = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}
