package reports

type PeriodSummary struct {
	ID    string `json:"id"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	TotalUsers           int            `json:"totalUsers"`
	ActivePeriod         *PeriodSummary `json:"activePeriod,omitempty"`
	AssignmentsTotal     int            `json:"assignmentsTotal"`
	AssignmentsCompleted int            `json:"assignmentsCompleted"`
	CompletionRate       float64        `json:"completionRate"`
	PinsThisMonth        int            `json:"pinsThisMonth"`
	TriwulanCandidates   int            `json:"triwulanCandidates"`
	TriwulanRaters       int            `json:"triwulanRaters"`
	FailedJobs7d         int            `json:"failedJobs7d"`
}

// Summary is a user's personal overview.
type Summary struct {
	PendingAssignments  int `json:"pendingAssignments"`
	FeedbackReceived    int `json:"feedbackReceived"`
	PinsReceivedMonth   int `json:"pinsReceivedMonth"`
	UnreadNotifications int `json:"unreadNotifications"`
}
