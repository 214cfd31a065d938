package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenClaimer enforces single use of upload tokens: the first claim wins,
// a replay within the credential window is refused.
type TokenClaimer interface {
	Claim(ctx context.Context, token string, ttl time.Duration) (bool, error)
}

const tokenKeyPrefix = "upload_token:"

type RedisClaimer struct {
	client *redis.Client
}

func NewRedisClaimer(client *redis.Client) *RedisClaimer {
	return &RedisClaimer{client: client}
}

func (c *RedisClaimer) Claim(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.client.SetNX(ctx, tokenKeyPrefix+token, 1, ttl).Result()
}

// MemoryClaimer is the single-node fallback when redis is not configured.
type MemoryClaimer struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryClaimer() *MemoryClaimer {
	return &MemoryClaimer{seen: make(map[string]time.Time), now: time.Now}
}

func (c *MemoryClaimer) Claim(_ context.Context, token string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for t, expires := range c.seen {
		if now.After(expires) {
			delete(c.seen, t)
		}
	}
	if _, ok := c.seen[token]; ok {
		return false, nil
	}
	c.seen[token] = now.Add(ttl)
	return true, nil
}
