// Package otp issues and verifies one-time password reset codes kept in Redis.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of a verification
type Result int

const (
	Invalid Result = iota // No code issued, or the code does not match
	Valid                 // Code matches and is within its lifetime
	Expired               // Code matches but is older than the TTL
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// DefaultMaxAttempts bounds wrong guesses per issued code
const DefaultMaxAttempts = 5

type entry struct {
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store keeps at most one live code per username
type Store struct {
	rdb         redis.Cmdable
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewStore creates a code store with the given code lifetime
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, maxAttempts: DefaultMaxAttempts, now: time.Now}
}

// TTL returns how long an issued code stays valid
func (s *Store) TTL() time.Duration { return s.ttl }

func key(username string) string { return "otp:user:" + username }

// attemptsKey counts wrong guesses against the live code with INCR
func attemptsKey(username string) string { return "otp:attempts:" + username }

// Issue generates a fresh 6-digit code for username, replacing any earlier one
func (s *Store) Issue(ctx context.Context, username string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	raw, err := json.Marshal(entry{Code: code, IssuedAt: s.now().UTC()})
	if err != nil {
		return "", err
	}
	// Keep the record past its lifetime so a late attempt reports Expired rather than Invalid
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key(username), raw, 2*s.ttl)
		pipe.Del(ctx, attemptsKey(username)) // Fresh code, fresh guess budget
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Verify checks code against the one issued for username. A successful
// verification does not consume the code; call Clear once it has been used.
func (s *Store) Verify(ctx context.Context, username, code string) (Result, error) {
	raw, err := s.rdb.Get(ctx, key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Invalid, nil
	}
	if err != nil {
		return Invalid, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Invalid, fmt.Errorf("decode code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) != 1 {
		return Invalid, s.recordMiss(ctx, username)
	}
	if s.maxAttempts > 0 {
		misses, err := s.rdb.Get(ctx, attemptsKey(username)).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return Invalid, err
		}
		if misses >= s.maxAttempts {
			return Invalid, s.Clear(ctx, username) // Burned while this request was in flight
		}
	}
	if s.now().Sub(e.IssuedAt) > s.ttl {
		return Expired, nil
	}
	return Valid, nil
}

// recordMiss counts a wrong guess atomically and burns the code once the limit is reached
func (s *Store) recordMiss(ctx context.Context, username string) error {
	if s.maxAttempts <= 0 {
		return nil
	}
	var misses *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		misses = pipe.Incr(ctx, attemptsKey(username))
		pipe.Expire(ctx, attemptsKey(username), 2*s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	if misses.Val() >= int64(s.maxAttempts) {
		return s.rdb.Del(ctx, key(username)).Err() // Too many guesses burns the code
	}
	return nil
}

// Clear removes any code issued for username along with its guess count
func (s *Store) Clear(ctx context.Context, username string) error {
	return s.rdb.Del(ctx, key(username), attemptsKey(username)).Err()
}
