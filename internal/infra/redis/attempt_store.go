package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"proctor-quiz-service/internal/domain"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempts stay in a local map; attempts are never persisted.
//   - Redis only carries a liveness marker per attempt, refreshed on every save,
//     so operators can count live attempts across instances.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]domain.Attempt),
	}
}

func (s *AttemptStore) Save(ctx context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	s.attempts[attempt.ID] = attempt
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(ctx, s.key(attempt.ID), string(attempt.Stage), s.ttl).Err()
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	attempt, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptStore) Delete(ctx context.Context, attemptID string) error {
	s.mu.Lock()
	_, ok := s.attempts[attemptID]
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	if err := s.client.Del(ctx, s.key(attemptID)).Err(); err != nil {
		return err
	}
	if !ok {
		return domain.ErrAttemptNotFound
	}
	return nil
}

// LiveAttempts counts the liveness markers visible to every instance.
func (s *AttemptStore) LiveAttempts(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quiz:attempt:*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
