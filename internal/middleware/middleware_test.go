package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelbooking/catalog-api/internal/config"
	"github.com/travelbooking/catalog-api/internal/metrics"
)

func TestRequestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	userID := uuid.New()
	router := setupTestRouter()
	router.Use(RequestLogger(logger))
	router.GET("/ok", func(c *gin.Context) {
		c.Set(UserContextKey, UserContext{UserID: userID, Role: "customer"})
		c.Status(http.StatusOK)
	})
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tests := []struct {
		path  string
		level string
	}{
		{"/ok?page=2", "info"},
		{"/bad", "warning"},
		{"/boom", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			doRequest(router, http.MethodGet, tt.path, "Bearer x")

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, http.MethodGet, entry["method"])
			assert.Equal(t, true, entry["has_auth"])
			assert.Contains(t, entry, "latency_ms")
		})
	}

	buf.Reset()
	doRequest(router, http.MethodGet, "/ok?page=2", "")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "page=2", entry["query"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, false, entry["has_auth"])
}

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	router := setupTestRouter()
	router.Use(Metrics())
	router.GET("/metrics-test/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/metrics-test/:id", "204")
	before := testutil.ToFloat64(counter)

	doRequest(router, http.MethodGet, "/metrics-test/1", "")
	doRequest(router, http.MethodGet, "/metrics-test/2", "")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRateLimit_PassthroughWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute}

	router := setupTestRouter()
	router.POST("/login", RateLimit(cfg, nil, testLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := doRequest(router, http.MethodPost, "/login", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitHelpers(t *testing.T) {
	assert.Equal(t, "ratelimit:/user/login:10.0.0.1", rateKey("/user/login", "10.0.0.1"))
	assert.Equal(t, "ratelimit:/user/login:unknown", rateKey("/user/login", ""))

	assert.Equal(t, int64(60), bucketTTL(config.RateLimitConfig{Capacity: 10, RefillTokens: 1, RefillInterval: 6 * time.Second}))
	assert.Equal(t, int64(3600), bucketTTL(config.RateLimitConfig{Capacity: 10}))

	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 2, retryAfterSeconds(1500))
}

func TestResponseCache_Disabled(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: false}, nil, testLogger())
	assert.False(t, rc.Enabled())
	assert.NoError(t, rc.Invalidate(context.Background()))

	calls := 0
	router := setupTestRouter()
	router.GET("/country/selAll", rc.Handler(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	doRequest(router, http.MethodGet, "/country/selAll", "")
	w := doRequest(router, http.MethodGet, "/country/selAll", "")

	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get("X-Cache"))
}

func TestResponseCache_Defaults(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, testLogger())
	assert.Equal(t, defaultCacheTTL, rc.ttl)
	assert.Equal(t, "catalog", rc.prefix)
	assert.Equal(t, "catalog:version", rc.versionKey())
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("catalog", 1, "/city/selAll", "page=1")
	assert.Equal(t, a, cacheKey("catalog", 1, "/city/selAll", "page=1"))
	assert.NotEqual(t, a, cacheKey("catalog", 2, "/city/selAll", "page=1"))
	assert.NotEqual(t, a, cacheKey("catalog", 1, "/city/selAll", "page=2"))
	assert.Regexp(t, `^catalog:v1:[0-9a-f]{40}$`, a)
}

func TestBodyWriter_CopiesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	w := &bodyWriter{ResponseWriter: c.Writer}
	c.Writer = w
	c.JSON(http.StatusOK, gin.H{"message": "hello"})

	assert.JSONEq(t, `{"message":"hello"}`, w.buf.String())
	assert.Equal(t, rec.Body.String(), w.buf.String())
}
