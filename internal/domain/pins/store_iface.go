package pins

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type StoreAPI interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	EnsureAllowanceTx(ctx context.Context, tx pgx.Tx, userID string, week Week) error
	LockAllowanceTx(ctx context.Context, tx pgx.Tx, userID string, week Week) (Allowance, error)
	ProfileExistsTx(ctx context.Context, tx pgx.Tx, userID string) (bool, error)
	PinExistsTx(ctx context.Context, tx pgx.Tx, giverID, receiverID string, week Week) (bool, error)
	InsertPinTx(ctx context.Context, tx pgx.Tx, pin Pin) (Pin, error)
	ConsumeAllowanceTx(ctx context.Context, tx pgx.Tx, userID string, week Week) (Allowance, error)
	Allowance(ctx context.Context, userID string, week Week) (Allowance, error)
	PinsGiven(ctx context.Context, userID string, limit, offset int) ([]Pin, error)
	PinsReceived(ctx context.Context, userID string, limit, offset int) ([]Pin, error)
	Leaderboard(ctx context.Context, year, month, limit int, timezone string) ([]LeaderboardEntry, error)
	ProfileName(ctx context.Context, userID string) (string, error)
}
