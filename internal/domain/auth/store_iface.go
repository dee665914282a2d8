package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	PasswordHash(ctx context.Context, userID string) (string, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error
	UpdateLastLogin(ctx context.Context, userID string) error
	RevokeSession(ctx context.Context, userID, sessionHash string) error
	RevokeAllSessions(ctx context.Context, userID string) error
	SessionValid(ctx context.Context, userID, sessionHash string) (bool, error)
	PurgeSessions(ctx context.Context) (int64, error)
}
