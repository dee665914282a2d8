package pins

import "time"

// Week is the ISO-8601 week used to key allowances, evaluated in the portal timezone.
// Postgres DATE_PART('week') and DATE_PART('isoyear') return the same values.
type Week struct {
	Number int `json:"weekNumber"`
	Year   int `json:"year"`
	Month  int `json:"month"`
}

func WeekOf(t time.Time, loc *time.Location) Week {
	if loc != nil {
		t = t.In(loc)
	}
	year, week := t.ISOWeek()
	return Week{Number: week, Year: year, Month: int(t.Month())}
}
