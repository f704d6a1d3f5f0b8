package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storelens-ai/storelens/domains/usage/be/service"
)

// keyTTL keeps stale month buckets around slightly past their window so a
// late scheduled reset still finds them, then lets Redis reclaim them.
const keyTTL = 62 * 24 * time.Hour

// incrIfBelow runs the check and the increment inside one script execution,
// which Redis serializes per key. ARGV[2] < 0 means unbounded.
var incrIfBelow = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local limit = tonumber(ARGV[2])
if limit >= 0 and current >= limit then
  return {current, 0}
end
current = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('EXPIRE', KEYS[1], ARGV[3])
return {current, 1}
`)

// RedisCounter keeps usage counters in per-shop month-bucket hashes, for
// deployments that want hot-path counter traffic off Postgres. Keys roll over
// naturally at month boundaries; ResetAll additionally clears the current
// bucket for an explicit mid-window reset.
type RedisCounter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisCounter constructs a counter on the shared Redis client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	if client == nil {
		panic("redis client is required")
	}
	return &RedisCounter{client: client, prefix: "usage", now: time.Now}
}

func (c *RedisCounter) IncrementIfBelow(ctx context.Context, shopDomain, metric string, limit int) (int, bool, error) {
	key := c.bucketKey(shopDomain)
	res, err := incrIfBelow.Run(ctx, c.client, []string{key},
		metric, limit, int(keyTTL.Seconds())).Slice()
	if err != nil {
		return 0, false, fmt.Errorf("usage incr script: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("usage incr script: unexpected reply %v", res)
	}

	value, ok := res[0].(int64)
	if !ok {
		return 0, false, fmt.Errorf("usage incr script: unexpected value %T", res[0])
	}
	applied, _ := res[1].(int64)
	return int(value), applied == 1, nil
}

func (c *RedisCounter) Usage(ctx context.Context, shopDomain string) (map[string]int, error) {
	fields, err := c.client.HGetAll(ctx, c.bucketKey(shopDomain)).Result()
	if err != nil {
		return nil, fmt.Errorf("usage read: %w", err)
	}

	usage := make(map[string]int, len(fields))
	for metric, raw := range fields {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("usage read: non-numeric counter %q for %q", raw, metric)
		}
		usage[metric] = count
	}
	return usage, nil
}

func (c *RedisCounter) ResetAll(ctx context.Context) (int64, error) {
	pattern := fmt.Sprintf("%s:%s:*", c.prefix, c.monthWindow())

	var reset int64
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return reset, fmt.Errorf("usage reset: %w", err)
		}
		reset++
	}
	if err := iter.Err(); err != nil {
		return reset, fmt.Errorf("usage reset scan: %w", err)
	}
	return reset, nil
}

func (c *RedisCounter) bucketKey(shopDomain string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, c.monthWindow(), shopDomain)
}

func (c *RedisCounter) monthWindow() string {
	return c.now().UTC().Format("200601")
}

// Ensure interface compliance.
var _ service.Counter = (*RedisCounter)(nil)
