package filedrop

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer keeps two watchers from importing the same file.
type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

const claimPrefix = "filedrop:claim:"

// releaseScript deletes the claim only if this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisClaimer struct {
	rdb   redis.UniversalClient
	owner string
	ttl   time.Duration
}

func NewRedisClaimer(rdb redis.UniversalClient, owner string, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisClaimer{rdb: rdb, owner: owner, ttl: ttl}
}

func (c *RedisClaimer) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, claimPrefix+key, c.owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, c.rdb, []string{claimPrefix + key}, c.owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
