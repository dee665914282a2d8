package roles

import "errors"

var (
	ErrInvalidRole  = errors.New("role must be one of user, supervisor, admin")
	ErrUserNotFound = errors.New("user not found")
)
