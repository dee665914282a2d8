package periods

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type StoreAPI interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	GetPeriod(ctx context.Context, periodID string) (Period, error)
	ActivePeriod(ctx context.Context) (Period, error)
	CreatePeriod(ctx context.Context, in PeriodInput) (Period, error)
	CompletePeriodTx(ctx context.Context, tx pgx.Tx, periodID string) error
	ListQuarterRows(ctx context.Context) ([]QuarterRow, error)

	DeactivateAllTx(ctx context.Context, tx pgx.Tx) error
	ActivatePeriodTx(ctx context.Context, tx pgx.Tx, periodID string) (bool, error)
	PeriodIDsForMonthsTx(ctx context.Context, tx pgx.Tx, year int, months []int) ([]string, error)
	DeleteResponsesTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error
	DeleteAssignmentsTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error
	DeleteReminderLogsTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error
	DeleteHistoryTx(ctx context.Context, tx pgx.Tx, periodIDs []string) error
	DeletePeriodsTx(ctx context.Context, tx pgx.Tx, periodIDs []string) (int, error)
	InsertPeriodIfMissingTx(ctx context.Context, tx pgx.Tx, in PeriodInput) (Period, bool, error)
	UpsertQuarterTx(ctx context.Context, tx pgx.Tx, key QuarterKey, start, end time.Time) error
	DeleteQuarterTx(ctx context.Context, tx pgx.Tx, key QuarterKey) (bool, error)
}
