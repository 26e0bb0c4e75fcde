package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

type stubAuthenticator map[string]uuid.UUID

func (s stubAuthenticator) Authenticate(token string) (uuid.UUID, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return uuid.Nil, apperror.ErrTokenInvalid
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAuthRouter(auth SessionAuthenticator) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	whoami := func(c *gin.Context) {
		id, _ := c.Get(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"user": id})
	}
	r.GET("/private", AuthMiddleware(auth), whoami)
	r.GET("/public", OptionalAuthMiddleware(auth), whoami)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	r := newAuthRouter(stubAuthenticator{"good": userID})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), decode(t, w)["user"])
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("без токена", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(apperror.ErrCodeUnauthorized), decode(t, w)["code"])
	})

	t.Run("невалидный токен", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer forged")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	r := newAuthRouter(stubAuthenticator{"good": userID})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])

	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, userID.String(), decode(t, w)["user"])
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/not-verified", func(c *gin.Context) { _ = c.Error(apperror.ErrNotVerified) })
	r.GET("/wrapped", func(c *gin.Context) {
		_ = c.Error(errors.Join(errors.New("ctx"), apperror.ErrEmailTaken))
	})
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(errors.New("pq: connection refused")) })
	r.GET("/internal-app", func(c *gin.Context) {
		_ = c.Error(apperror.Wrap(errors.New("disk full"), apperror.ErrCodeInternal, "не удалось сохранить фотографию"))
	})

	cases := []struct {
		path   string
		status int
		code   apperror.ErrorCode
		msg    string
	}{
		{path: "/not-verified", status: http.StatusForbidden, code: apperror.ErrCodeNotVerified, msg: apperror.ErrNotVerified.Message},
		{path: "/wrapped", status: http.StatusConflict, code: apperror.ErrCodeConflict, msg: apperror.ErrEmailTaken.Message},
		{path: "/internal", status: http.StatusInternalServerError, code: apperror.ErrCodeInternal, msg: apperror.ErrInternal.Message},
		{path: "/internal-app", status: http.StatusInternalServerError, code: apperror.ErrCodeInternal, msg: apperror.ErrInternal.Message},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, string(tc.code), body["code"])
			assert.Equal(t, tc.msg, body["msg"])
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/not-verified", nil))
	assert.Equal(t, true, decode(t, w)["needs_verification"])
}

func rateLimitedRouter(t *testing.T, redisURL string) *gin.Engine {
	t.Helper()
	store, err := NewLimiterStore(context.Background(), redisURL)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RateLimitMiddleware(store, "auth", 2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func assertRateLimited(t *testing.T, r *gin.Engine) {
	t.Helper()
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, string(apperror.ErrCodeRateLimited), decode(t, w)["code"])
}

func TestRateLimitMiddleware_MemoryStore(t *testing.T) {
	assertRateLimited(t, rateLimitedRouter(t, ""))
}

func TestRateLimitMiddleware_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	assertRateLimited(t, rateLimitedRouter(t, "redis://"+mr.Addr()))

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Contains(t, keys[0], limiterPrefix)
}

func TestNewLimiterStore_BadURL(t *testing.T) {
	_, err := NewLimiterStore(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://petway.example"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://petway.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://petway.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUUIDValidator(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/pets/:id", UUIDValidator("id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pets/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pets/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperror.ErrCodeValidation), decode(t, w)["code"])
}
