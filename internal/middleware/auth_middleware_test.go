package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelbooking/catalog-api/pkg/jwt"
)

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Hour,
		24*time.Hour,
	)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(router *gin.Engine, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "ana@example.com", "customer")
	require.NoError(t, err)

	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		require.True(t, exists)
		c.JSON(http.StatusOK, gin.H{"message": "success", "user_id": userCtx.UserID, "email": userCtx.Email, "role": userCtx.Role})
	})

	w := doRequest(router, http.MethodGet, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "ana@example.com")
	assert.Contains(t, w.Body.String(), "customer")
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := doRequest(router, http.MethodGet, "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
	assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
}

func TestAuthMiddleware_InvalidAuthFormat(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer", "some-token"},
		{"Wrong prefix", "Basic some-token"},
		{"Empty Bearer", "Bearer   "},
		{"No token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/protected", tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	for _, token := range []string{"invalid.token.here", "randomstringnotavalidtoken"} {
		t.Run(token, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/protected", "Bearer "+token)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := w.Body.String()
			assert.True(t, strings.Contains(body, "INVALID_TOKEN") || strings.Contains(body, "TOKEN_EXPIRED"), body)
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Millisecond,
		24*time.Hour,
	)
	token, err := jwtService.GenerateAccessToken(uuid.New(), "ana@example.com", "customer")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := doRequest(router, http.MethodGet, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	jwtService := setupTestJWTService()
	wrongService := jwt.NewService("wrong-secret-key", "wrong-refresh-secret", time.Hour, 24*time.Hour)

	token, err := wrongService.GenerateAccessToken(uuid.New(), "ana@example.com", "customer")
	require.NoError(t, err)

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := doRequest(router, http.MethodGet, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	jwtService := setupTestJWTService()
	token, err := jwtService.GenerateRefreshToken(uuid.New(), "ana@example.com", "customer")
	require.NoError(t, err)

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := doRequest(router, http.MethodGet, "/protected", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestGetUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Context exists", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		expected := UserContext{UserID: uuid.New(), Email: "ana@example.com", Role: "admin"}
		c.Set(UserContextKey, expected)

		userCtx, exists := GetUserContext(c)
		assert.True(t, exists)
		assert.Equal(t, expected, userCtx)
	})

	t.Run("Context not found", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		userCtx, exists := GetUserContext(c)
		assert.False(t, exists)
		assert.Equal(t, UserContext{}, userCtx)
	})

	t.Run("Context wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(UserContextKey, "wrong type")
		userCtx, exists := GetUserContext(c)
		assert.False(t, exists)
		assert.Equal(t, UserContext{}, userCtx)
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := setupTestJWTService()
	userID := uuid.New()

	t.Run("User has required role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(userID, "staff@example.com", "staff")
		require.NoError(t, err)

		router := setupTestRouter()
		router.GET("/staff-only", AuthMiddleware(jwtService, testLogger()), RequireRole("admin", "staff"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		w := doRequest(router, http.MethodGet, "/staff-only", "Bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "success")
	})

	t.Run("User doesn't have required role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(userID, "ana@example.com", "customer")
		require.NoError(t, err)

		router := setupTestRouter()
		router.GET("/admin-only", AuthMiddleware(jwtService, testLogger()), RequireRole("admin"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
		})

		w := doRequest(router, http.MethodGet, "/admin-only", "Bearer "+token)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
	})

	t.Run("No user context", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/no-auth", RequireRole("admin"), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
		})

		w := doRequest(router, http.MethodGet, "/no-auth", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_USER_CONTEXT")
	})
}
