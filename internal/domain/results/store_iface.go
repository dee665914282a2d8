package results

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type StoreAPI interface {
	FeedbackRows(ctx context.Context, assesseeID, periodID string) ([]FeedbackRow, error)
	FeedbackRowsForPeriod(ctx context.Context, periodID string) ([]FeedbackRow, error)
	Profile(ctx context.Context, userID string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	PublicView(ctx context.Context, userID string) (bool, error)
	Period(ctx context.Context, periodID string) (PeriodInfo, error)
	UpsertHistoryTx(ctx context.Context, tx pgx.Tx, userID, periodID string, overall *float64, totalAssessors int, aspectsJSON []byte) error
	History(ctx context.Context, userID string) ([]HistoryEntry, error)
	Comments(ctx context.Context, assesseeID, periodID string) ([]EncryptedComment, error)
}

type EncryptedComment struct {
	Aspect  string
	Comment []byte
}
