package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/petway-backend/internal/http/middleware"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

var errBadBody = apperror.Validation("некорректное тело запроса")

// currentUserID извлекает userID из контекста. Nil, если запрос анонимный.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}

	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}

	return userID, true
}

// requireUserID как currentUserID, но пишет 401 в c.Errors.
func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		_ = c.Error(apperror.ErrUnauthorized)
	}
	return userID, ok
}

// bindJSON разбирает тело запроса. Ошибка разбора уходит как ValidationError.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeValidation, errBadBody.Message))
		return false
	}
	return true
}

// uuidParam читает UUID из параметра пути.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperror.Validation("параметр " + name + " должен быть валидным UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// intQuery читает целый query параметр с дефолтом.
func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
