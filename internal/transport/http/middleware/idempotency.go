package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"feedbackportal/internal/platform/querier"
)

// DefaultIdempotencyTTL bounds how long a stored response is replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyStore keeps the first successful response per (user, key, endpoint)
// until the key ages out of the replay window.
type IdempotencyStore struct {
	db  querier.Querier
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: DefaultIdempotencyTTL, now: time.Now}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) cutoff() time.Time {
	return s.now().Add(-s.ttl)
}

// Check returns the stored response for a live key. A live key bound to a
// different payload is a conflict.
func (s *IdempotencyStore) Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE user_id = $1 AND key = $2 AND endpoint = $3 AND created_at > $4
  `, userID, key, endpoint, s.cutoff()).Scan(&storedHash, &stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case storedHash != requestHash:
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

// Save records the response. An expired key is taken over by the new request.
func (s *IdempotencyStore) Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (user_id, key, endpoint) DO UPDATE
    SET request_hash = EXCLUDED.request_hash,
        response_json = EXCLUDED.response_json,
        created_at = now()
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
       OR idempotency_keys.created_at <= $6
  `, userID, key, endpoint, requestHash, response, s.cutoff())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Purge deletes keys outside the replay window.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= $1`, s.cutoff())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
