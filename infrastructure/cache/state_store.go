package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"social-publisher/domain/repository"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

// RedisStateStore keeps pending authorizations in Redis so a state token issued
// by one API instance can be redeemed, once, on any other.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) repository.IStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, nonce, codeVerifier string, ttl time.Duration) error {
	return s.client.Set(ctx, stateKeyPrefix+nonce, codeVerifier, ttl).Err()
}

func (s *RedisStateStore) Take(ctx context.Context, nonce string) (string, bool, error) {
	v, err := s.client.GetDel(ctx, stateKeyPrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

type pendingState struct {
	codeVerifier string
	expiresAt    time.Time
}

// MemoryStateStore is the single-instance fallback when Redis is not configured.
type MemoryStateStore struct {
	mu      sync.Mutex
	pending map[string]pendingState
	now     func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{pending: make(map[string]pendingState), now: time.Now}
}

func (s *MemoryStateStore) Save(_ context.Context, nonce, codeVerifier string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.prune(now)
	s.pending[nonce] = pendingState{codeVerifier: codeVerifier, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, nonce string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(s.now())
	p, ok := s.pending[nonce]
	if !ok {
		return "", false, nil
	}
	delete(s.pending, nonce)
	return p.codeVerifier, true, nil
}

func (s *MemoryStateStore) prune(now time.Time) {
	for k, p := range s.pending {
		if !p.expiresAt.After(now) {
			delete(s.pending, k)
		}
	}
}
