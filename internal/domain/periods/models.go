package periods

import "time"

type Period struct {
	ID          string    `json:"id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsActive    bool      `json:"isActive"`
	IsCompleted bool      `json:"isCompleted"`
}

func (p Period) Quarter() QuarterKey {
	return KeyFor(p.Year, p.Month)
}

type Quarter struct {
	ID        string     `json:"id"`
	Key       QuarterKey `json:"key"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	IsActive  bool       `json:"isActive"`
	Persisted bool       `json:"persisted"`
	Months    []int      `json:"months"`
	PeriodIDs []string   `json:"periodIds"`
}

// QuarterRow is an explicitly created quarter record.
type QuarterRow struct {
	Key       QuarterKey
	StartDate time.Time
	EndDate   time.Time
}

type QuarterInput struct {
	Key       QuarterKey
	StartDate *time.Time
	EndDate   *time.Time
}

type PeriodInput struct {
	Month     int
	Year      int
	StartDate time.Time
	EndDate   time.Time
}

type CascadeResult struct {
	PeriodIDs []string `json:"periodIds"`
	Deleted   int      `json:"deletedPeriods"`
	Created   []Period `json:"createdPeriods,omitempty"`
}
