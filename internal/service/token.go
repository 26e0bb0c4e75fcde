package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

// Claims - набор клеймов токенов сессии и сброса пароля.
// У токена сессии Type пустой.
type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// UserID разбирает subject токена.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, apperror.ErrTokenInvalid
	}
	return id, nil
}

// IsReset сообщает, что токен выпущен для сброса пароля.
func (c *Claims) IsReset() bool {
	return c.Type == models.TokenTypeReset
}

// TokenManager отвечает за выпуск и проверку JWT.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, sessionTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// SessionTTL возвращает время жизни токена сессии.
func (m *TokenManager) SessionTTL() time.Duration {
	return m.sessionTTL
}

// IssueSession выпускает токен сессии {sub}.
func (m *TokenManager) IssueSession(userID uuid.UUID) (string, error) {
	return m.sign(userID, "", m.sessionTTL)
}

// IssueResetToken выпускает токен сброса пароля {sub, type: "reset"}.
func (m *TokenManager) IssueResetToken(userID uuid.UUID) (string, error) {
	return m.sign(userID, models.TokenTypeReset, m.resetTTL)
}

// Verify проверяет подпись и срок действия токена.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrTokenExpired
		}
		return nil, apperror.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, apperror.ErrTokenInvalid
	}
	return claims, nil
}

func (m *TokenManager) sign(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось подписать токен")
	}
	return signed, nil
}
