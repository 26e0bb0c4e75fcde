package validation

import (
	"unicode/utf8"

	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

const (
	// Минимум считается в символах.
	MinPasswordLength = 8
	// bcrypt учитывает только первые 72 байта.
	MaxPasswordBytes = 72
)

// ValidatePassword проверяет длину пароля.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperror.Validation("пароль должен быть не менее 8 символов")
	}
	if len(password) > MaxPasswordBytes {
		return apperror.Validation("пароль должен быть не длиннее 72 байт")
	}
	return nil
}
