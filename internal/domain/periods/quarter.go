package periods

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuarterKey identifies a triwulan. Its text form is "{year}-Q{quarter}".
type QuarterKey struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

func KeyFor(year, month int) QuarterKey {
	return QuarterKey{Year: year, Quarter: QuarterOf(month)}
}

func ParseQuarterKey(raw string) (QuarterKey, error) {
	yearPart, quarterPart, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(raw)), "-Q")
	if !ok {
		return QuarterKey{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, raw)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return QuarterKey{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, raw)
	}
	quarter, err := strconv.Atoi(quarterPart)
	if err != nil {
		return QuarterKey{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, raw)
	}
	key := QuarterKey{Year: year, Quarter: quarter}
	if err := key.Validate(); err != nil {
		return QuarterKey{}, err
	}
	return key, nil
}

func (k QuarterKey) String() string {
	return fmt.Sprintf("%d-Q%d", k.Year, k.Quarter)
}

func (k QuarterKey) Validate() error {
	if k.Quarter < 1 || k.Quarter > 4 || k.Year < 2000 || k.Year > 9999 {
		return fmt.Errorf("%w: %d-Q%d", ErrInvalidQuarter, k.Year, k.Quarter)
	}
	return nil
}

func (k QuarterKey) Months() []int {
	first := k.Quarter*3 - 2
	return []int{first, first + 1, first + 2}
}

// Bounds returns the first and last calendar day of the quarter.
func (k QuarterKey) Bounds() (time.Time, time.Time) {
	months := k.Months()
	start := time.Date(k.Year, time.Month(months[0]), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, -1)
}

func (k QuarterKey) Contains(day time.Time) bool {
	start, end := k.Bounds()
	d := dateOnly(day)
	return !d.Before(start) && !d.After(end)
}

func (k QuarterKey) Less(other QuarterKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Quarter < other.Quarter
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
