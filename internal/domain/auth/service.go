package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{store: store, secret: secret, ttl: ttl}
}

type LoginResult struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if user.Password == "" || CheckPassword(user.Password, password) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	sessionID, err := newSessionID()
	if err != nil {
		return LoginResult{}, err
	}
	expires := time.Now().Add(s.ttl)
	if err := s.store.CreateSession(ctx, user.ID, HashToken(sessionID), expires); err != nil {
		return LoginResult{}, err
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, Email: user.Email, SessionID: sessionID}, s.ttl)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return LoginResult{Token: token, UserID: user.ID, Email: user.Email, ExpiresAt: expires}, nil
}

func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, userID, HashToken(sessionID))
}

// SessionActive implements the session check used by the auth middleware.
func (s *Service) SessionActive(ctx context.Context, userID, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.store.SessionValid(ctx, userID, HashToken(sessionID))
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	hash, err := s.store.PasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if hash == "" || CheckPassword(hash, current) != nil {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	newHash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}
	return s.store.RevokeAllSessions(ctx, userID)
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *Service) PurgeSessions(ctx context.Context) (int64, error) {
	return s.store.PurgeSessions(ctx)
}
