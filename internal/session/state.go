package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/results"
)

var ErrLockHeld = errors.New("client already has a live session")

// releaseScript deletes the lock only if we still own it.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// extendScript refreshes the lock TTL only if we still own it.
const extendScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// StateManager keeps per-client quiz state in Redis: the active quiz, the
// last finished result and its recommendation outcome.
type StateManager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStateManager creates a state manager backed by Redis. Entries expire
// after ttl of inactivity.
func NewStateManager(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *StateManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StateManager{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session_state").Logger(),
	}
}

func quizKey(clientID string) string   { return fmt.Sprintf("session:quiz:%s", clientID) }
func resultKey(clientID string) string { return fmt.Sprintf("session:result:%s", clientID) }
func lockKey(clientID string) string   { return fmt.Sprintf("session:lock:%s", clientID) }

func recommendKey(resultID uuid.UUID) string {
	return fmt.Sprintf("session:recommend:%s", resultID.String())
}

// StoreQuiz makes doc the client's active quiz and drops any previous result.
func (s *StateManager) StoreQuiz(ctx context.Context, clientID string, doc quiz.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, quizKey(clientID), data, s.ttl)
		pipe.Del(ctx, resultKey(clientID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("store quiz: %w", err)
	}
	return nil
}

// ActiveQuiz returns the client's active quiz, or nil if there is none.
func (s *StateManager) ActiveQuiz(ctx context.Context, clientID string) (*quiz.Document, error) {
	data, err := s.redis.Get(ctx, quizKey(clientID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	var doc quiz.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return &doc, nil
}

// Reset clears the active quiz and the last result.
func (s *StateManager) Reset(ctx context.Context, clientID string) error {
	if err := s.redis.Del(ctx, quizKey(clientID), resultKey(clientID)).Err(); err != nil {
		return fmt.Errorf("reset client state: %w", err)
	}
	return nil
}

// StoreResult records the client's latest finished result.
func (s *StateManager) StoreResult(ctx context.Context, rec results.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.redis.Set(ctx, resultKey(rec.ClientID), data, s.ttl).Err()
}

// LastResult returns the client's latest result, or nil if there is none.
func (s *StateManager) LastResult(ctx context.Context, clientID string) (*results.Record, error) {
	data, err := s.redis.Get(ctx, resultKey(clientID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	var rec results.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &rec, nil
}

// ClaimRecommendation reserves the single recommendation request for a
// result. Only the first caller gets true. An unresolved claim lapses after
// hold so a crashed request does not block the result for good.
func (s *StateManager) ClaimRecommendation(ctx context.Context, resultID uuid.UUID, hold time.Duration) (bool, error) {
	if hold <= 0 || hold > s.ttl {
		hold = s.ttl
	}
	claimed, err := s.redis.SetNX(ctx, recommendKey(resultID), "", hold).Result()
	if err != nil {
		return false, fmt.Errorf("claim recommendation: %w", err)
	}
	return claimed, nil
}

// StoreRecommendation saves the outcome of a claimed request for the full
// state TTL.
func (s *StateManager) StoreRecommendation(ctx context.Context, resultID uuid.UUID, outcome results.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal recommendation: %w", err)
	}
	return s.redis.Set(ctx, recommendKey(resultID), data, s.ttl).Err()
}

// Recommendation returns the stored outcome. It is nil while the claimed
// request is still in flight or if none was made.
func (s *StateManager) Recommendation(ctx context.Context, resultID uuid.UUID) (*results.Outcome, error) {
	data, err := s.redis.Get(ctx, recommendKey(resultID)).Bytes()
	if err == redis.Nil || (err == nil && len(data) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}

	var outcome results.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("unmarshal recommendation: %w", err)
	}
	return &outcome, nil
}

// Lock is a distributed claim on a client's live session.
type Lock struct {
	redis *redis.Client
	key   string
	value string
}

// LockClient acquires the live-session lock for a client. The lock expires
// after ttl unless extended.
func (s *StateManager) LockClient(ctx context.Context, clientID string, ttl time.Duration) (*Lock, error) {
	key := lockKey(clientID)
	value := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrLockHeld
	}
	return &Lock{redis: s.redis, key: key, value: value}, nil
}

// Extend pushes the lock expiry out by ttl. It reports false if the lock was lost.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := l.redis.Eval(ctx, extendScript, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("extend lock: %w", err)
	}
	return n == 1, nil
}

// Release drops the lock if it is still ours.
func (l *Lock) Release(ctx context.Context) error {
	return l.redis.Eval(ctx, releaseScript, []string{l.key}, l.value).Err()
}
