package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
)

// SessionCookieName - имя HttpOnly cookie с токеном сессии.
const SessionCookieName = "token"

// SessionAuthenticator проверяет токен сессии.
type SessionAuthenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

var errSessionInvalid = apperror.New(apperror.ErrCodeUnauthorized, "сессия недействительна или истекла")

// AuthMiddleware требует токен сессии в заголовке Authorization: Bearer или в cookie.
func AuthMiddleware(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c)
		if raw == "" {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		userID, err := auth.Authenticate(raw)
		if err != nil || userID == uuid.Nil {
			abortWithError(c, errSessionInvalid)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware выставляет userID, если передан валидный токен, и пропускает запрос в любом случае.
func OptionalAuthMiddleware(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := sessionToken(c); raw != "" {
			if userID, err := auth.Authenticate(raw); err == nil && userID != uuid.Nil {
				c.Set(ContextUserIDKey, userID)
			}
		}
		c.Next()
	}
}

// sessionToken достаёт токен: сначала из заголовка, затем из cookie.
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
