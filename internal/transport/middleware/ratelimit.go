package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/transport"
)

// tokenBucket refills refill_tokens every interval_ms up to capacity and
// takes one token per call. Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill_tokens)
		last_refill = last_refill + intervals * interval_ms
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimiter throttles a route per client IP with a Redis token bucket.
type RateLimiter struct {
	*transport.BaseHandler
	cfg   internal.RateLimitConfig
	rdb   redis.Scripter
	now   func() time.Time
	scope string
}

func NewRateLimiter(cfg internal.RateLimitConfig, rdb redis.Scripter, scope string, logger *slog.Logger) *RateLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &RateLimiter{
		BaseHandler: transport.NewBaseHandler(logger),
		cfg:         cfg,
		rdb:         rdb,
		now:         time.Now,
		scope:       scope,
	}
}

func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Handler is a pass-through when the limiter is disabled or has no Redis.
// Redis errors let the request through. Buckets are keyed on r.RemoteAddr;
// forwarding headers only count when chi's RealIP runs in front.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	if !l.cfg.Enabled || l.rdb == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, retry, err := l.take(r.Context(), l.key(r))
		if err != nil {
			l.Logger.WarnContext(r.Context(), "rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			secs := int64(math.Ceil(retry.Seconds()))
			w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
			l.WriteAppError(w, internal.NewRateLimitError(secs))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) take(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	vals, err := tokenBucket.Run(ctx, l.rdb, []string{key},
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, err
	}
	if len(vals) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected script result %v", vals)
	}
	return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}

func (l *RateLimiter) key(r *http.Request) string {
	return strings.Join([]string{l.cfg.Prefix, l.scope, "ip", clientIP(r)}, ":")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
