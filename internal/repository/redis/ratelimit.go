package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/tix-gate/internal/clock"
	redisx "github.com/kirinyoku/tix-gate/internal/redis"
)

// Sorted-set sliding window. Every hit is a member scored by its arrival
// time in ms; members older than the window are trimmed first.
//
// KEYS[1] = window key
// ARGV    = now_ms, window_ms, limit, member
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
redis.call('ZADD', key, 'NX', now, ARGV[4])
local hits = redis.call('ZCARD', key)
redis.call('PEXPIRE', key, window)

if hits <= limit then
  return {1, hits, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local wait = window - (now - (tonumber(oldest[2]) or now))
if wait < 0 then wait = 0 end
return {0, hits, wait}
`

// Decision is the limiter's verdict for one hit.
type Decision struct {
	Allowed    bool
	Hits       int64
	RetryAfter time.Duration
}

// SlidingWindowLimiter throttles scanner traffic per client. A scanner
// stuck in a retry loop must not starve the ledger mailbox.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	clock  clock.Clock
	script *redis.Script
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
	clk clock.Clock,
) *SlidingWindowLimiter {
	if clk == nil {
		clk = clock.Real()
	}

	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		clock:  clk,
		script: redis.NewScript(slidingWindowScript),
	}
}

func (l *SlidingWindowLimiter) Limit() int            { return l.limit }
func (l *SlidingWindowLimiter) Window() time.Duration { return l.window }

// Allow records one hit for clientID and reports whether it fits the
// window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	const op = "redisrepo.SlidingWindowLimiter.Allow"

	vals, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{redisx.KeyRateLimit(l.scope, clientID)},
		l.clock.Now().UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("%s: unexpected script reply %v", op, vals)
	}

	return Decision{
		Allowed:    vals[0] == 1,
		Hits:       vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
