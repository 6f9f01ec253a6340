package calendarmirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ledgerTTL bounds how long a transaction id is remembered; mirror retries
// happen on the order of minutes, not days, so this keeps the ledger small.
const ledgerTTL = 72 * time.Hour

// RedisLedger backs IdempotencyLedger with a Redis SET-if-not-exists, so the
// dedup survives process restarts.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

// NewRedisLedger constructs a RedisLedger. addr is a host:port; an empty
// addr means the caller should use NewMemoryLedger instead.
func NewRedisLedger(addr string) *RedisLedger {
	return &RedisLedger{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "aawo:mirror:tx:",
	}
}

func (l *RedisLedger) Seen(ctx context.Context, transactionID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+transactionID).Result()
	if err != nil {
		return false, fmt.Errorf("redis ledger seen: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLedger) Mark(ctx context.Context, transactionID string) error {
	if err := l.client.Set(ctx, l.prefix+transactionID, 1, ledgerTTL).Err(); err != nil {
		return fmt.Errorf("redis ledger mark: %w", err)
	}
	return nil
}

// MemoryLedger is the in-process alternative to RedisLedger, so the dedup
// law still holds in tests and single-process runs without Redis. Which
// ledger a Mirror uses is whatever is passed to NewMirror; nothing here
// picks one from AAWO_MIRROR_REDIS_ADDR.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]time.Time)}
}

func (l *MemoryLedger) Seen(ctx context.Context, transactionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	markedAt, ok := l.seen[transactionID]
	if ok && time.Since(markedAt) > ledgerTTL {
		delete(l.seen, transactionID)
		return false, nil
	}
	return ok, nil
}

func (l *MemoryLedger) Mark(ctx context.Context, transactionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[transactionID] = time.Now()
	return nil
}
