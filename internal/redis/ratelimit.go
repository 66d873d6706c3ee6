package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return {1, limit - count - 1, now + window}
`)

// Decision is the outcome of one rate limit check. ResetAt is a Unix time.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   int64
}

// RateLimiter is a sliding-window limiter shared by every server instance.
type RateLimiter struct {
	client redis.Scripter
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client redis.Scripter, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, window: window, now: time.Now}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int) (Decision, error) {
	now := rl.now().Unix()
	result, err := slidingWindowScript.Run(ctx, rl.client,
		[]string{rateLimitKeyPrefix + key},
		now, int64(rl.window.Seconds()), limit,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(result) != 3 {
		return Decision{}, fmt.Errorf("rate limit check: unexpected result length %d", len(result))
	}
	return Decision{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   result[2],
	}, nil
}
