package assessment

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type StoreAPI interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ListAssignmentsForAssessor(ctx context.Context, assessorID, periodID string) ([]Assignment, error)
	GetAssignment(ctx context.Context, assignmentID string) (Assignment, error)
	ResponsesForAssignment(ctx context.Context, assignmentID string) ([]ResponseRow, error)
	DeleteResponsesTx(ctx context.Context, tx pgx.Tx, assignmentID string) error
	InsertResponsesTx(ctx context.Context, tx pgx.Tx, assignmentID string, rows []ResponseRow) error
	MarkCompletedTx(ctx context.Context, tx pgx.Tx, assignmentID string) error
	ProfileDepartment(ctx context.Context, userID string) (string, error)
	TeamMembers(ctx context.Context, supervisorID, department, periodID string) ([]TeamMember, error)
	EnsureAssignment(ctx context.Context, assessorID, assesseeID, periodID string) (string, error)
	ActivePeriodID(ctx context.Context) (string, error)
	PeriodCompleted(ctx context.Context, periodID string) (bool, error)
	PeriodProgress(ctx context.Context, periodID string) (int, int, error)
	PendingAssignments(ctx context.Context, periodID string) ([]PendingAssignment, error)
	RecordReminder(ctx context.Context, assignmentID, periodID, userID string) error
}
