package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// usageKeyTTL outlives the UTC day a usage counter belongs to.
const usageKeyTTL = 25 * time.Hour

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// UsageKey names the per-user request counter for the UTC day containing t.
func UsageKey(email string, t time.Time) string {
	return fmt.Sprintf("usage:requests:%s:%s", email, t.UTC().Format("2006-01-02"))
}

var consumeScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')
if current >= limit then
    return {0, current}
end

local used = redis.call('INCR', key)
if used == 1 then
    redis.call('EXPIRE', key, ttl)
end

return {1, used}
`)

// UsageCounter counts requests against a daily limit.
type UsageCounter struct {
	client redis.Scripter
}

func NewUsageCounter(client redis.Scripter) *UsageCounter {
	return &UsageCounter{client: client}
}

// Consume records one request under key unless the limit is already reached.
// It returns whether the request is allowed and the count after the call.
func (c *UsageCounter) Consume(ctx context.Context, key string, limit int) (bool, int, error) {
	result, err := consumeScript.Run(ctx, c.client, []string{key}, limit, int64(usageKeyTTL.Seconds())).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("consume usage: %w", err)
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("consume usage: unexpected result length %d", len(result))
	}
	return result[0] == 1, int(result[1]), nil
}
