package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/score-leaderboard/internal/config"
)

// tokenBucket refills lazily on each call and returns
// {allowed (0|1), tokens left, ms until the next token}.
// KEYS[1] bucket key; ARGV now_ms, capacity, refill, interval_ms, ttl_s.
var tokenBucket = redis.NewScript(`
local now      = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill   = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl      = tonumber(ARGV[5])

local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(b[1]) or capacity
local ts = tonumber(b[2]) or now

if interval > 0 then
	local steps = math.floor(math.max(0, now - ts) / interval)
	if steps > 0 then
		tokens = math.min(capacity, tokens + steps * refill)
		ts = ts + steps * interval
	end
end

local ok, wait = 0, 0
if tokens >= 1 then
	ok = 1
	tokens = tokens - 1
else
	wait = math.max(0, interval - (now - ts))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// bucketState is the decoded reply of tokenBucket.
type bucketState struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// NewTokenBucket guards a route with a per-key token bucket held in Redis,
// shared by every server instance.  Redis failures let the request through.
// A disabled config or a nil client yields a no-op middleware.
func NewTokenBucket(cfg config.RateLimitConfig, rdb redis.Scripter, log *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil || isNilClient(rdb) {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			reply, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				log.Warn("rate limit check failed", "key", key, "error", err)
				return next(c)
			}
			st, err := parseBucketReply(reply)
			if err != nil {
				log.Warn("rate limit check failed", "key", key, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if st.allowed {
				return next(c)
			}

			secs := int((st.retry + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Info("rate limited", "key", key, "retry_after", st.retry)
			}
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":       "too_many_requests",
				"detail":      "Too many requests, try again later",
				"retry_after": secs,
			})
		}
	}
}

func parseBucketReply(v any) (bucketState, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketState{}, fmt.Errorf("unexpected script reply %#v", v)
	}
	nums := make([]int64, 3)
	for i, x := range arr {
		n, ok := x.(int64)
		if !ok {
			return bucketState{}, fmt.Errorf("unexpected script reply element %#v", x)
		}
		nums[i] = n
	}
	return bucketState{
		allowed:   nums[0] == 1,
		remaining: nums[1],
		retry:     time.Duration(max(nums[2], 0)) * time.Millisecond,
	}, nil
}

// buildRateKey joins the parts selected by cfg.KeyStrategy, e.g.
// "rl:ip:10.0.0.7:route:POST /login" for ip_route.  Unknown strategies use
// every part.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	part := map[string][]string{
		"ip":    {"ip", ip},
		"user":  {"user", currentUserID(c)},
		"route": {"route", c.Request().Method + " " + c.Path()},
	}

	var names []string
	switch s := strings.ToLower(cfg.KeyStrategy); s {
	case "ip", "user", "route", "ip_user", "ip_route", "user_route":
		names = strings.Split(s, "_")
	default:
		names = []string{"ip", "user", "route"}
	}
	key := []string{cfg.Prefix}
	for _, n := range names {
		key = append(key, part[n]...)
	}
	return strings.Join(key, ":")
}

// isNilClient catches a typed nil *redis.Client passed through the
// interface, which is what config.NewRedisClient returns when Redis is down.
func isNilClient(rdb redis.Scripter) bool {
	c, ok := rdb.(*redis.Client)
	return ok && c == nil
}
