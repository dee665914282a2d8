package assessment

import "time"

type Assignment struct {
	ID             string     `json:"id"`
	AssessorID     string     `json:"assessorId"`
	AssesseeID     string     `json:"assesseeId"`
	AssesseeName   string     `json:"assesseeName"`
	AssesseeTitle  string     `json:"assesseePosition"`
	Department     string     `json:"department"`
	PeriodID       string     `json:"periodId"`
	PeriodMonth    int        `json:"periodMonth"`
	PeriodYear     int        `json:"periodYear"`
	PeriodComplete bool       `json:"periodCompleted"`
	IsCompleted    bool       `json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type AspectRating struct {
	Aspect  string `json:"aspect"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type Submission struct {
	Ratings []AspectRating
}

// ResponseRow is one stored indicator rating.
type ResponseRow struct {
	Aspect    string
	Indicator string
	Rating    int
	Comment   []byte
}

type AssignmentDetail struct {
	Assignment Assignment     `json:"assignment"`
	Aspects    []Aspect       `json:"aspects"`
	Ratings    []AspectRating `json:"ratings"`
}

type TeamMember struct {
	UserID       string     `json:"userId"`
	FullName     string     `json:"fullName"`
	Position     string     `json:"position"`
	Department   string     `json:"department"`
	AssignmentID string     `json:"assignmentId,omitempty"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type AssignmentInput struct {
	AssessorID string `json:"assessorId"`
	AssesseeID string `json:"assesseeId"`
}

// Progress reports assignment completion. Rate is a percentage in 0..100.
type Progress struct {
	PeriodID  string  `json:"periodId"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"completionRate"`
}

// PendingAssignment is an incomplete assignment awaiting a reminder.
type PendingAssignment struct {
	AssignmentID string
	AssessorID   string
	AssesseeName string
	PeriodID     string
}
