package usage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// consumeScript performs the compare and the increment inside redis, so the
// whole check-and-increment is one atomic server-side operation.
// KEYS[1] counter key, ARGV[1] n, ARGV[2] limit.
// Returns {count, 1} when applied, {count, 0} when denied.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local n = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if current + n > limit then
	return {current, 0}
end
current = redis.call('INCRBY', KEYS[1], n)
return {current, 1}
`)

// redisStore keeps counters in redis. Counter keys embed the period start,
// so a rolled period naturally begins at zero while prior-period keys stay
// untouched.
type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a counter Store backed by the given redis client.
// Panics if client is nil.
func NewRedisStore(client redis.UniversalClient) Store {
	if client == nil {
		panic("usage: redis client is required")
	}
	return &redisStore{
		client: client,
		prefix: "usage",
	}
}

func (s *redisStore) redisKey(key Key) string {
	return fmt.Sprintf("%s:%s:%d:%s", s.prefix, key.UserID, key.PeriodStart.UTC().Unix(), key.Resource)
}

func (s *redisStore) Count(ctx context.Context, key Key) (int64, error) {
	count, err := s.client.Get(ctx, s.redisKey(key)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return count, nil
}

func (s *redisStore) ConsumeIfBelow(ctx context.Context, key Key, n, limit int64) (int64, bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{s.redisKey(key)}, n, limit).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("%w: unexpected script reply of length %d", ErrStoreFailure, len(res))
	}
	return res[0], res[1] == 1, nil
}
