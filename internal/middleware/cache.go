package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/config"
	"github.com/travelbooking/catalog-api/internal/metrics"
)

const defaultCacheTTL = 30 * time.Second

// ResponseCache stores successful GET responses in redis. Keys embed a
// version counter; any successful write through the cache bumps it, which
// orphans every cached entry until it expires.
type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger
}

type cachedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// NewResponseCache returns a cache that passes everything through when
// disabled or when rdb is nil
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, logger *logrus.Logger) *ResponseCache {
	c := &ResponseCache{ttl: cfg.TTL, prefix: cfg.Prefix, logger: logger}
	if cfg.Enabled {
		c.rdb = rdb
	}
	if c.ttl <= 0 {
		c.ttl = defaultCacheTTL
	}
	if c.prefix == "" {
		c.prefix = "catalog"
	}
	return c
}

// Enabled reports whether responses are cached
func (rc *ResponseCache) Enabled() bool {
	return rc != nil && rc.rdb != nil
}

func (rc *ResponseCache) versionKey() string {
	return rc.prefix + ":version"
}

func (rc *ResponseCache) key(ctx context.Context, r *http.Request) (string, error) {
	version, err := rc.rdb.Get(ctx, rc.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return cacheKey(rc.prefix, version, r.URL.Path, r.URL.RawQuery), nil
}

func cacheKey(prefix string, version int64, path, query string) string {
	sum := sha1.Sum([]byte(path + "?" + query))
	return fmt.Sprintf("%s:v%d:%x", prefix, version, sum[:])
}

// Invalidate drops every cached response
func (rc *ResponseCache) Invalidate(ctx context.Context) error {
	if !rc.Enabled() {
		return nil
	}
	return rc.rdb.Incr(ctx, rc.versionKey()).Err()
}

// bodyWriter copies the response body while writing it
type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Handler serves GET requests from the cache and invalidates it after
// successful writes
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	if !rc.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if c.Request.Method != http.MethodGet {
			c.Next()
			if c.Writer.Status() < http.StatusBadRequest {
				if err := rc.Invalidate(ctx); err != nil {
					rc.logger.WithError(err).Warn("failed to invalidate response cache")
				}
			}
			return
		}

		key, err := rc.key(ctx, c.Request)
		if err != nil {
			rc.logger.WithError(err).Warn("response cache unavailable")
			c.Next()
			return
		}

		if raw, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
			var cached cachedResponse
			if json.Unmarshal(raw, &cached) == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				c.Header("X-Cache", "HIT")
				c.Data(http.StatusOK, cached.ContentType, cached.Body)
				c.Abort()
				return
			}
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()

		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()

		if w.Status() != http.StatusOK {
			return
		}
		payload, err := json.Marshal(cachedResponse{
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.ttl).Err(); err != nil {
			rc.logger.WithError(err).Warn("failed to store cached response")
		}
	}
}
