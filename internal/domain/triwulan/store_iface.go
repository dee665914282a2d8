package triwulan

import (
	"context"

	"github.com/jackc/pgx/v5"

	"feedbackportal/internal/domain/periods"
)

type StoreAPI interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ProfileExists(ctx context.Context, userID string) (bool, error)
	ListCandidates(ctx context.Context, key periods.QuarterKey) ([]Candidate, error)
	GetCandidate(ctx context.Context, candidateID string) (Candidate, error)
	InsertCandidate(ctx context.Context, key periods.QuarterKey, userID, nominatedBy, reason string) (Candidate, error)
	DeleteCandidate(ctx context.Context, key periods.QuarterKey, candidateID string) (bool, error)
	InsertVote(ctx context.Context, key periods.QuarterKey, voterID, candidateID string) (Vote, error)
	VoteFor(ctx context.Context, key periods.QuarterKey, voterID string) (Vote, error)
	VoterIDs(ctx context.Context, key periods.QuarterKey) ([]string, error)
	RatedCandidatesTx(ctx context.Context, tx pgx.Tx, key periods.QuarterKey, voterID string) ([]string, error)
	UpsertRatingTx(ctx context.Context, tx pgx.Tx, key periods.QuarterKey, rating Rating) (Rating, error)
	RatingsByVoter(ctx context.Context, key periods.QuarterKey, voterID string) ([]Rating, error)
	RatingsForQuarter(ctx context.Context, key periods.QuarterKey) ([]Rating, error)
	Scores(ctx context.Context, key periods.QuarterKey) ([]Score, error)
	UpsertWinner(ctx context.Context, winner Winner) (Winner, error)
	Winner(ctx context.Context, key periods.QuarterKey) (Winner, error)
	ListVoters(ctx context.Context) ([]Voter, error)
	UpsertDeficiency(ctx context.Context, candidateID string, month int, note string) (Deficiency, error)
	ListDeficiencies(ctx context.Context, key periods.QuarterKey) ([]Deficiency, error)
}
