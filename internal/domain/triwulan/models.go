package triwulan

import (
	"time"

	"feedbackportal/internal/domain/periods"
)

type Candidate struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Quarter     int       `json:"quarter"`
	UserID      string    `json:"userId"`
	FullName    string    `json:"fullName"`
	Position    string    `json:"position"`
	Department  string    `json:"department"`
	Reason      string    `json:"reason"`
	NominatedBy string    `json:"nominatedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c Candidate) Key() periods.QuarterKey {
	return periods.QuarterKey{Year: c.Year, Quarter: c.Quarter}
}

type Vote struct {
	ID          string    `json:"id"`
	VoterID     string    `json:"voterId"`
	CandidateID string    `json:"candidateId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Rating struct {
	VoterID     string    `json:"voterId"`
	CandidateID string    `json:"candidateId"`
	Scores      []int     `json:"scores"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Filled reports whether every criterion carries a positive score.
func (r Rating) Filled() bool {
	if len(r.Scores) != CriteriaCount {
		return false
	}
	for _, s := range r.Scores {
		if s <= 0 {
			return false
		}
	}
	return true
}

type Score struct {
	CandidateID string  `json:"candidateId"`
	UserID      string  `json:"userId"`
	FullName    string  `json:"fullName"`
	TotalPoints float64 `json:"totalPoints"`
	NumRaters   int     `json:"numRaters"`
	FinalScore  float64 `json:"finalScore"`
}

type Winner struct {
	Year        int       `json:"year"`
	Quarter     int       `json:"quarter"`
	CandidateID string    `json:"candidateId"`
	UserID      string    `json:"userId"`
	FullName    string    `json:"fullName"`
	FinalScore  float64   `json:"finalScore"`
	DecidedBy   string    `json:"decidedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Deficiency struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	Month       int       `json:"month"`
	Note        string    `json:"note"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Voter struct {
	UserID     string `json:"userId"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
}

// Progress is a voter's completion state for one quarter.
type Progress struct {
	UserID    string `json:"userId"`
	FullName  string `json:"fullName,omitempty"`
	HasVoted  bool   `json:"hasVoted"`
	Rated     int    `json:"rated"`
	Required  int    `json:"required"`
	Completed bool   `json:"completed"`
}

type Overview struct {
	Key        string     `json:"triwulan"`
	Candidates int        `json:"candidates"`
	Voters     int        `json:"voters"`
	Completed  int        `json:"completed"`
	Rate       float64    `json:"completionRate"`
	Progress   []Progress `json:"progress"`
}
