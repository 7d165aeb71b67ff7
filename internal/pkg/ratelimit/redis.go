package ratelimit

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// The first INCR of a window sets the expiry. The PTTL guard repairs keys
// that lost their expiry so a counter can never live forever.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter shares counters between processes through Redis.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
}

func NewRedisLimiter(client redis.Scripter) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit:"}
}

// Check fails open: when Redis is unreachable the request is allowed and a
// warning is logged.
func (l *RedisLimiter) Check(ctx context.Context, key string, cfg Config) Result {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return Result{Allowed: true}
	}

	vals, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, cfg.Window.Milliseconds()).Int64Slice()
	if err != nil || len(vals) != 2 {
		log.Warnf("[RateLimit] redis check for %s failed, allowing request: %v", key, err)
		return Result{Allowed: true, Remaining: cfg.Limit - 1, ResetIn: cfg.Window}
	}

	count := int(vals[0])
	resetIn := time.Duration(vals[1]) * time.Millisecond

	if count > cfg.Limit {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}
	return Result{Allowed: true, Remaining: cfg.Limit - count, ResetIn: resetIn}
}
