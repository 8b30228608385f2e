package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"proctor-quiz-service/internal/domain"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// BankRepository caches whole banks in Redis and falls back to a loader on cache miss.
// Banks are stored as JSON so question order survives the round trip:
// SET quiz:bank:{bankID} {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := r.cached(ctx, bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx, bankID); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.Bank{}, err
		}
		if len(bank.Questions) == 0 {
			return domain.Bank{}, domain.ErrNoQuestions
		}

		if data, err := json.Marshal(bank); err == nil {
			// best-effort; a failed write only costs another load
			_ = r.client.Set(ctx, r.key(bankID), data, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.Bank{}, err
	}
	return result.(domain.Bank), nil
}

// Invalidate drops the cached copy of a bank.
func (r *BankRepository) Invalidate(ctx context.Context, bankID string) error {
	return r.client.Del(ctx, r.key(bankID)).Err()
}

func (r *BankRepository) cached(ctx context.Context, bankID string) (domain.Bank, bool) {
	raw, err := r.client.Get(ctx, r.key(bankID)).Bytes()
	if err != nil {
		return domain.Bank{}, false
	}
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err != nil || len(bank.Questions) == 0 {
		return domain.Bank{}, false
	}
	return bank, true
}

func (r *BankRepository) key(bankID string) string {
	return "quiz:bank:" + bankID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
