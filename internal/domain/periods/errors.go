package periods

import "errors"

var (
	ErrInvalidQuarter      = errors.New("invalid quarter")
	ErrInvalidRange        = errors.New("start date must be on or before end date")
	ErrRangeOutsideQuarter = errors.New("date range must lie within the quarter")
	ErrQuarterNotFound     = errors.New("quarter not found")
	ErrPeriodNotFound      = errors.New("assessment period not found")
	ErrPeriodExists        = errors.New("assessment period already exists for that month")
	ErrInvalidMonth        = errors.New("month must be between 1 and 12")
)
