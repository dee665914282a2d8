package periods

import (
	"sort"
	"time"
)

// GroupQuarters buckets monthly periods into quarters. A quarter is active
// when any of its months is flagged active or when now falls inside the
// merged date range.
func GroupQuarters(periods []Period, now time.Time) []Quarter {
	byKey := map[QuarterKey]*Quarter{}
	for _, p := range periods {
		key := p.Quarter()
		q, ok := byKey[key]
		if !ok {
			q = &Quarter{
				ID:        key.String(),
				Key:       key,
				StartDate: dateOnly(p.StartDate),
				EndDate:   dateOnly(p.EndDate),
			}
			byKey[key] = q
		}
		if p.StartDate.Before(q.StartDate) {
			q.StartDate = dateOnly(p.StartDate)
		}
		if p.EndDate.After(q.EndDate) {
			q.EndDate = dateOnly(p.EndDate)
		}
		if p.IsActive {
			q.IsActive = true
		}
		q.Months = append(q.Months, p.Month)
		q.PeriodIDs = append(q.PeriodIDs, p.ID)
	}

	today := dateOnly(now)
	out := make([]Quarter, 0, len(byKey))
	for _, q := range byKey {
		if !q.IsActive && !today.Before(q.StartDate) && !today.After(q.EndDate) {
			q.IsActive = true
		}
		sort.Ints(q.Months)
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Key.Less(out[i].Key)
	})
	return out
}

// MonthlyRanges splits [start, end] into per-month ranges.
func MonthlyRanges(start, end time.Time) []PeriodInput {
	start, end = dateOnly(start), dateOnly(end)
	var out []PeriodInput
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		monthEnd := cursor.AddDate(0, 1, -1)
		p := PeriodInput{
			Month:     int(cursor.Month()),
			Year:      cursor.Year(),
			StartDate: cursor,
			EndDate:   monthEnd,
		}
		if start.After(p.StartDate) {
			p.StartDate = start
		}
		if end.Before(p.EndDate) {
			p.EndDate = end
		}
		out = append(out, p)
		cursor = cursor.AddDate(0, 1, 0)
	}
	return out
}

// ResolveRange applies the quarter defaults and checks a custom range.
func ResolveRange(in QuarterInput) (time.Time, time.Time, error) {
	if err := in.Key.Validate(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := in.Key.Bounds()
	if in.StartDate != nil {
		start = dateOnly(*in.StartDate)
	}
	if in.EndDate != nil {
		end = dateOnly(*in.EndDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if !in.Key.Contains(start) || !in.Key.Contains(end) {
		return time.Time{}, time.Time{}, ErrRangeOutsideQuarter
	}
	return start, end, nil
}
