package periods

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// HistoryRecorder snapshots per-user results inside the completing transaction.
type HistoryRecorder interface {
	SnapshotPeriodTx(ctx context.Context, tx pgx.Tx, periodID string) (int, error)
}

type Service struct {
	store   StoreAPI
	history HistoryRecorder
	now     func() time.Time
}

func NewService(store StoreAPI, history HistoryRecorder, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:   store,
		history: history,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.store.ListPeriods(ctx)
}

func (s *Service) Get(ctx context.Context, periodID string) (Period, error) {
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) Active(ctx context.Context) (Period, error) {
	return s.store.ActivePeriod(ctx)
}

func (s *Service) Create(ctx context.Context, in PeriodInput) (Period, error) {
	if in.Month < 1 || in.Month > 12 {
		return Period{}, ErrInvalidMonth
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		start := time.Date(in.Year, time.Month(in.Month), 1, 0, 0, 0, 0, time.UTC)
		in.StartDate, in.EndDate = start, start.AddDate(0, 1, -1)
	}
	if in.EndDate.Before(in.StartDate) {
		return Period{}, ErrInvalidRange
	}
	return s.store.CreatePeriod(ctx, in)
}

// Activate flags one period active and clears every other flag in the same transaction.
func (s *Service) Activate(ctx context.Context, periodID string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.store.DeactivateAllTx(ctx, tx); err != nil {
			return err
		}
		found, err := s.store.ActivatePeriodTx(ctx, tx, periodID)
		if err != nil {
			return err
		}
		if !found {
			return ErrPeriodNotFound
		}
		return nil
	})
}

// Complete closes the period and writes its history snapshot atomically. A
// failed snapshot leaves the period open so the call can be retried.
func (s *Service) Complete(ctx context.Context, periodID string) (int, error) {
	count := 0
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.store.CompletePeriodTx(ctx, tx, periodID); err != nil {
			return err
		}
		if s.history == nil {
			return nil
		}
		written, err := s.history.SnapshotPeriodTx(ctx, tx, periodID)
		if err != nil {
			return fmt.Errorf("snapshot period history: %w", err)
		}
		count = written
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) Delete(ctx context.Context, periodID string) error {
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := s.cascadeDeleteTx(ctx, tx, []string{periodID})
		return err
	})
}

// Quarters groups every monthly period and marks explicitly created quarters.
func (s *Service) Quarters(ctx context.Context) ([]Quarter, error) {
	list, err := s.store.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListQuarterRows(ctx)
	if err != nil {
		return nil, err
	}
	persisted := make(map[QuarterKey]bool, len(rows))
	for _, row := range rows {
		persisted[row.Key] = true
	}
	quarters := GroupQuarters(list, s.now())
	for i := range quarters {
		quarters[i].Persisted = persisted[quarters[i].Key]
	}
	return quarters, nil
}

func (s *Service) Quarter(ctx context.Context, key QuarterKey) (Quarter, error) {
	quarters, err := s.Quarters(ctx)
	if err != nil {
		return Quarter{}, err
	}
	for _, q := range quarters {
		if q.Key == key {
			return q, nil
		}
	}
	return Quarter{}, ErrQuarterNotFound
}

// CreateQuarter records the quarter and creates any missing monthly periods for its range.
func (s *Service) CreateQuarter(ctx context.Context, in QuarterInput) (Quarter, error) {
	start, end, err := ResolveRange(in)
	if err != nil {
		return Quarter{}, err
	}
	var created []Period
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.store.UpsertQuarterTx(ctx, tx, in.Key, start, end); err != nil {
			return err
		}
		for _, month := range MonthlyRanges(start, end) {
			p, _, err := s.store.InsertPeriodIfMissingTx(ctx, tx, month)
			if err != nil {
				return fmt.Errorf("create period %d-%02d: %w", month.Year, month.Month, err)
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return Quarter{}, err
	}
	return s.quarterFrom(in.Key, created), nil
}

// ReplaceQuarter drops the quarter's periods with all dependent rows and
// recreates monthly periods covering the requested range, all in one transaction.
func (s *Service) ReplaceQuarter(ctx context.Context, in QuarterInput) (Quarter, CascadeResult, error) {
	start, end, err := ResolveRange(in)
	if err != nil {
		return Quarter{}, CascadeResult{}, err
	}
	var result CascadeResult
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		ids, err := s.store.PeriodIDsForMonthsTx(ctx, tx, in.Key.Year, in.Key.Months())
		if err != nil {
			return err
		}
		deleted, err := s.cascadeDeleteTx(ctx, tx, ids)
		if err != nil {
			return err
		}
		result.PeriodIDs = ids
		result.Deleted = deleted
		for _, month := range MonthlyRanges(start, end) {
			p, _, err := s.store.InsertPeriodIfMissingTx(ctx, tx, month)
			if err != nil {
				return fmt.Errorf("recreate period %d-%02d: %w", month.Year, month.Month, err)
			}
			result.Created = append(result.Created, p)
		}
		return s.store.UpsertQuarterTx(ctx, tx, in.Key, start, end)
	})
	if err != nil {
		return Quarter{}, CascadeResult{}, err
	}
	return s.quarterFrom(in.Key, result.Created), result, nil
}

func (s *Service) DeleteQuarter(ctx context.Context, key QuarterKey) (CascadeResult, error) {
	if err := key.Validate(); err != nil {
		return CascadeResult{}, err
	}
	var result CascadeResult
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		ids, err := s.store.PeriodIDsForMonthsTx(ctx, tx, key.Year, key.Months())
		if err != nil {
			return err
		}
		deleted, err := s.cascadeDeleteTx(ctx, tx, ids)
		if err != nil {
			return err
		}
		removed, err := s.store.DeleteQuarterTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if len(ids) == 0 && !removed {
			return ErrQuarterNotFound
		}
		result.PeriodIDs = ids
		result.Deleted = deleted
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

// cascadeDeleteTx removes dependents before the periods themselves.
func (s *Service) cascadeDeleteTx(ctx context.Context, tx pgx.Tx, periodIDs []string) (int, error) {
	if len(periodIDs) == 0 {
		return 0, nil
	}
	steps := []struct {
		name string
		run  func(context.Context, pgx.Tx, []string) error
	}{
		{"feedback responses", s.store.DeleteResponsesTx},
		{"assignments", s.store.DeleteAssignmentsTx},
		{"reminder logs", s.store.DeleteReminderLogsTx},
		{"history", s.store.DeleteHistoryTx},
	}
	for _, step := range steps {
		if err := step.run(ctx, tx, periodIDs); err != nil {
			return 0, fmt.Errorf("delete %s: %w", step.name, err)
		}
	}
	deleted, err := s.store.DeletePeriodsTx(ctx, tx, periodIDs)
	if err != nil {
		return 0, fmt.Errorf("delete periods: %w", err)
	}
	return deleted, nil
}

func (s *Service) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Warn("period tx rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) quarterFrom(key QuarterKey, periods []Period) Quarter {
	grouped := GroupQuarters(periods, s.now())
	for _, q := range grouped {
		if q.Key == key {
			q.Persisted = true
			return q
		}
	}
	start, end := key.Bounds()
	return Quarter{ID: key.String(), Key: key, StartDate: start, EndDate: end, Persisted: true}
}
