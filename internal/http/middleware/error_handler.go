package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

// ErrorHandler превращает ошибки из c.Errors в JSON {msg, code}.
// Внутренние ошибки маскируются, клиенту уходит общее сообщение.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		appErr, ok := apperror.As(err)
		if !ok {
			appErr = apperror.ErrInternal
		}
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}

		if status >= http.StatusInternalServerError {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		message := appErr.Message
		if status == http.StatusInternalServerError {
			message = apperror.ErrInternal.Message
		}

		body := gin.H{"msg": message, "code": appErr.Code}
		for k, v := range appErr.Details {
			body[k] = v
		}
		c.JSON(status, body)
	}
}
