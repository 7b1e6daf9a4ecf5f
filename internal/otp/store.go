// Package otp keeps short-lived verification codes. Codes are stored as
// bcrypt hashes and every read checks expiry.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCodeNotFound    = errors.New("verification code not found or expired")
	ErrCodeMismatch    = errors.New("verification code does not match")
	ErrTooManyAttempts = errors.New("too many wrong verification codes")
)

// MaxAttempts is how many wrong codes a pending code survives. The code is
// discarded on the last one.
const MaxAttempts = 5

// Store keeps one pending code per key.
type Store interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	// Verify consumes the code for key when it matches.
	Verify(ctx context.Context, key, code string) error
}

// GenerateCode returns a random numeric code of the given length.
func GenerateCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

type memoryEntry struct {
	hash      []byte
	expiresAt time.Time
	failures  int
}

// MemoryStore is a process-local Store for tests and single-instance setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key, code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{hash: hash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return ErrCodeNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return ErrCodeNotFound
	}
	if bcrypt.CompareHashAndPassword(entry.hash, []byte(code)) != nil {
		entry.failures++
		if entry.failures >= MaxAttempts {
			delete(s.entries, key)
			return ErrTooManyAttempts
		}
		s.entries[key] = entry
		return ErrCodeMismatch
	}
	delete(s.entries, key)
	return nil
}

// RedisStore keeps codes in Redis and lets key TTLs handle expiry. Wrong
// guesses are counted under a sibling key that lives as long as the code.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "verification-code:"}
}

func (s *RedisStore) codeKey(key string) string     { return s.prefix + key }
func (s *RedisStore) attemptsKey(key string) string { return s.prefix + key + ":attempts" }

func (s *RedisStore) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.codeKey(key), hash, ttl)
		pipe.Del(ctx, s.attemptsKey(key))
		return nil
	})
	return err
}

// Verify consumes the code for key when it matches. Only the caller whose
// delete removes the key succeeds, so a code is accepted once even under
// concurrent verifies.
func (s *RedisStore) Verify(ctx context.Context, key, code string) error {
	hash, err := s.rdb.Get(ctx, s.codeKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return s.recordFailure(ctx, key)
	}
	removed, err := s.rdb.Del(ctx, s.codeKey(key)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrCodeNotFound
	}
	s.rdb.Del(ctx, s.attemptsKey(key))
	return nil
}

func (s *RedisStore) recordFailure(ctx context.Context, key string) error {
	failures, err := s.rdb.Incr(ctx, s.attemptsKey(key)).Result()
	if err != nil {
		return err
	}
	if failures == 1 {
		if ttl, err := s.rdb.PTTL(ctx, s.codeKey(key)).Result(); err == nil && ttl > 0 {
			s.rdb.PExpire(ctx, s.attemptsKey(key), ttl)
		}
	}
	if failures >= MaxAttempts {
		if err := s.rdb.Del(ctx, s.codeKey(key), s.attemptsKey(key)).Err(); err != nil {
			return err
		}
		return ErrTooManyAttempts
	}
	return ErrCodeMismatch
}
