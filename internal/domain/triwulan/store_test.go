package triwulan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"feedbackportal/internal/domain/periods"
)

type recordingTx struct {
	pgx.Tx
	statements []string
	args       [][]any
}

func (t *recordingTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.statements = append(t.statements, sql)
	t.args = append(t.args, args)
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (t *recordingTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.statements = append(t.statements, sql)
	t.args = append(t.args, args)
	return nil, errors.New("stop")
}

func TestRatedCandidatesTxLocksBeforeCounting(t *testing.T) {
	tx := &recordingTx{}
	key := periods.QuarterKey{Year: 2025, Quarter: 3}
	_, err := (&Store{}).RatedCandidatesTx(context.Background(), tx, key, "u1")
	if err == nil || err.Error() != "stop" {
		t.Fatalf("expected query error to propagate, got %v", err)
	}
	if len(tx.statements) != 2 {
		t.Fatalf("expected lock then select, got %q", tx.statements)
	}
	if tx.statements[0] != ratingLockSQL || tx.args[0][0] != "triwulan_rating:2025-Q3:u1" {
		t.Fatalf("expected advisory lock first, got %q %v", tx.statements[0], tx.args[0])
	}
	if !strings.Contains(tx.statements[1], "FROM triwulan_ratings") {
		t.Fatalf("expected rating count second, got %q", tx.statements[1])
	}
	if ratingLockKey(key, "u1") == ratingLockKey(key, "u2") || ratingLockKey(key, "u1") == ratingLockKey(periods.QuarterKey{Year: 2025, Quarter: 4}, "u1") {
		t.Fatal("lock keys must differ per voter and quarter")
	}
}
