package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/config"
	"github.com/travelbooking/catalog-api/internal/metrics"
	"github.com/travelbooking/catalog-api/internal/utils"
)

// tokenBucket refills refill_tokens every interval_ms up to capacity and
// returns {allowed, remaining, retry_after_ms}
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

// RateLimit applies a per-ip token bucket stored in redis. Without a client,
// or when disabled, requests pass through. Redis failures fail open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		key := rateKey(route, utils.ClientIP(c))

		vals, err := tokenBucket.Run(c.Request.Context(), rdb, []string{key},
			time.Now().UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			bucketTTL(cfg),
		).Int64Slice()
		if err != nil || len(vals) != 3 {
			logger.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			secs := retryAfterSeconds(retryMs)
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       http.StatusText(http.StatusTooManyRequests),
				"message":     "Too many requests. Please try again later.",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

func rateKey(route, ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf("ratelimit:%s:%s", route, ip)
}

// bucketTTL keeps a bucket long enough to refill completely
func bucketTTL(cfg config.RateLimitConfig) int64 {
	if cfg.RefillTokens <= 0 || cfg.RefillInterval <= 0 {
		return int64(time.Hour / time.Second)
	}
	refills := int64(math.Ceil(float64(cfg.Capacity) / float64(cfg.RefillTokens)))
	ttl := time.Duration(refills) * cfg.RefillInterval
	return int64(math.Max(1, math.Ceil(ttl.Seconds())))
}

func retryAfterSeconds(ms int64) int {
	secs := int(math.Ceil(float64(ms) / 1000.0))
	if secs < 1 {
		return 1
	}
	return secs
}
