package results

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPeriodNotFound = errors.New("assessment period not found")
	ErrForbidden      = errors.New("not allowed to view these results")
)
