package ratelimit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// allowScript increments the counter for a key, arming the window expiry
// on first touch, and returns {allowed, ttl_ms} atomically.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	local ttl = redis.call("PTTL", KEYS[1])
	return {0, ttl}
end
return {1, 0}
`)

// RedisLimiter is a fixed-window limiter shared across instances.
type RedisLimiter struct {
	client redis.UniversalClient
	rates  map[string]Rate
	fall   Rate
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, rates map[string]Rate, fallback Rate) *RedisLimiter {
	if rates == nil {
		rates = DefaultRates()
	}
	return &RedisLimiter{
		client: client,
		rates:  rates,
		fall:   fallback,
		prefix: "identity:rl:",
	}
}

func (r *RedisLimiter) rateFor(key string) Rate {
	for scope, rate := range r.rates {
		if len(key) >= len(scope) && key[:len(scope)] == scope {
			return rate
		}
	}
	return r.fall
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	rate := r.rateFor(key)
	if rate.Requests <= 0 || rate.Window <= 0 {
		return true, 0, nil
	}

	res, err := allowScript.Run(ctx, r.client, []string{r.prefix + key},
		rate.Requests, rate.Window.Milliseconds()).Slice()
	if err != nil {
		return false, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "rate limit check failed")
	}

	if len(res) != 2 {
		return false, 0, goerrors.New("unexpected rate limit script reply", goerrors.CategoryInternal)
	}

	allowed, _ := res[0].(int64)
	if allowed == 1 {
		return true, 0, nil
	}

	ttlMs, _ := res[1].(int64)
	if ttlMs < 0 {
		ttlMs = rate.Window.Milliseconds()
	}
	return false, time.Duration(ttlMs) * time.Millisecond, nil
}
