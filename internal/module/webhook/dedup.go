package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventStore remembers processed event ids so redelivered webhooks are
// acknowledged without being re-dispatched. The state-machine terminal
// guards already make redelivery harmless; dedup saves the work.
type EventStore interface {
	// MarkProcessed records the event id. It returns false when the id was
	// already recorded.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)

	// Forget removes a recorded event id so a provider retry after a
	// dispatch failure is processed instead of swallowed as a duplicate.
	Forget(ctx context.Context, eventID string) error
}

// MemoryEventStore keeps processed event ids in process memory.
type MemoryEventStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryEventStore creates an in-memory event store. Entries older than
// ttl are pruned lazily on write.
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &MemoryEventStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// MarkProcessed records the event id in memory.
func (s *MemoryEventStore) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, id)
		}
	}

	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = now
	return true, nil
}

// Forget removes an event id from memory.
func (s *MemoryEventStore) Forget(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, eventID)
	return nil
}

// RedisEventStore keeps processed event ids in Redis so deduplication holds
// across instances and restarts.
type RedisEventStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisEventStore creates a Redis-backed event store.
func NewRedisEventStore(client redis.UniversalClient, ttl time.Duration) *RedisEventStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisEventStore{client: client, ttl: ttl}
}

// MarkProcessed records the event id with SETNX; the first writer wins.
func (s *RedisEventStore) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.client.SetNX(ctx, "webhook:event:"+eventID, 1, s.ttl).Result()
}

// Forget removes a recorded event id.
func (s *RedisEventStore) Forget(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, "webhook:event:"+eventID).Err()
}
