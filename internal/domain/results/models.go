package results

import "time"

const (
	SupervisorWeight = 0.6
	PeerWeight       = 0.4

	// NotRatedLabel is shown when no feedback exists; it is never rendered as zero.
	NotRatedLabel = "Belum dinilai"
)

// FeedbackRow is one stored indicator rating joined with its assignment.
type FeedbackRow struct {
	AssessorID string
	AssesseeID string
	PeriodID   string
	Aspect     string
	Indicator  string
	Rating     float64
}

type AspectScore struct {
	Aspect            string   `json:"aspect"`
	SupervisorAverage *float64 `json:"supervisorAverage"`
	PeerAverage       *float64 `json:"peerAverage"`
	FinalScore        *float64 `json:"finalScore"`
	SupervisorCount   int      `json:"supervisorCount"`
	PeerCount         int      `json:"peerCount"`
	TotalFeedback     int      `json:"totalFeedback"`
}

type WeightedResult struct {
	Aspects       []AspectScore `json:"aspects"`
	OverallScore  *float64      `json:"overallScore"`
	TotalFeedback int           `json:"totalFeedback"`
}

func (r WeightedResult) HasData() bool {
	return r.TotalFeedback > 0
}

// Label renders the overall score or the not-rated label.
func (r WeightedResult) Label() string {
	if r.OverallScore == nil {
		return NotRatedLabel
	}
	return formatScore(*r.OverallScore)
}

type UserResult struct {
	UserID     string         `json:"userId"`
	FullName   string         `json:"fullName"`
	Position   string         `json:"position"`
	Department string         `json:"department"`
	PeriodID   string         `json:"periodId,omitempty"`
	Result     WeightedResult `json:"result"`
	Label      string         `json:"label"`
}

type RankingEntry struct {
	Rank          int      `json:"rank"`
	UserID        string   `json:"userId"`
	FullName      string   `json:"fullName"`
	Department    string   `json:"department"`
	OverallScore  *float64 `json:"overallScore"`
	TotalFeedback int      `json:"totalFeedback"`
}

type HistoryEntry struct {
	PeriodID       string        `json:"periodId"`
	Month          int           `json:"month"`
	Year           int           `json:"year"`
	OverallScore   *float64      `json:"overallScore"`
	TotalAssessors int           `json:"totalAssessors"`
	Aspects        []AspectScore `json:"aspects"`
	CreatedAt      time.Time     `json:"createdAt"`
}

type Comment struct {
	Aspect  string `json:"aspect"`
	Comment string `json:"comment"`
}

type Profile struct {
	UserID     string
	FullName   string
	Position   string
	Department string
}

type PeriodInfo struct {
	ID    string
	Month int
	Year  int
}
