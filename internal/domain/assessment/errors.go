package assessment

import "errors"

var (
	ErrAssignmentNotFound = errors.New("assessment assignment not found")
	ErrNotAssessor        = errors.New("assignment belongs to another assessor")
	ErrUnknownAspect      = errors.New("unknown aspect")
	ErrRatingOutOfRange   = errors.New("rating must be between 1 and 100")
	ErrDuplicateAspect    = errors.New("aspect submitted more than once")
	ErrEmptySubmission    = errors.New("at least one aspect rating is required")
	ErrSelfAssessment     = errors.New("assessor and assessee must differ")
	ErrNotTeamMember      = errors.New("user is not a member of your team")
	ErrNoActivePeriod     = errors.New("no active assessment period")
	ErrPeriodClosed       = errors.New("assessment period is already completed")
	ErrCommentTooLong     = errors.New("comment is too long")
)
