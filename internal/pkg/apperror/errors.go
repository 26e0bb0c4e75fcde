package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidAnswer      ErrorCode = "INVALID_ANSWER"
	ErrCodeInvalidCode        ErrorCode = "INVALID_CODE"
	ErrCodeCodeExpired        ErrorCode = "CODE_EXPIRED"
	ErrCodeNotVerified        ErrorCode = "NOT_VERIFIED"
	ErrCodeAlreadyVerified    ErrorCode = "ALREADY_VERIFIED"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeUnavailable        ErrorCode = "UNAVAILABLE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AppError - доменная ошибка с кодом и HTTP статусом.
// Details попадают в JSON ответ как дополнительные поля.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал и для копий
// с другим Cause или Details.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с конкретным сообщением.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// WithDetail возвращает копию ошибки с дополнительным полем.
func (e *AppError) WithDetail(key string, value any) *AppError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeNotVerified:
		return http.StatusForbidden
	case ErrCodeValidation, ErrCodeInvalidCredentials, ErrCodeInvalidAnswer, ErrCodeInvalidCode,
		ErrCodeCodeExpired, ErrCodeAlreadyVerified, ErrCodeTokenExpired, ErrCodeTokenInvalid:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As извлекает AppError из цепочки.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeValidation
}

// Сообщения о неверных учётных данных, ответе и коде намеренно общие.
var (
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrPetNotFound        = New(ErrCodeNotFound, "питомец не найден")
	ErrEmailTaken         = New(ErrCodeConflict, "email уже зарегистрирован")
	ErrInvalidCredentials = New(ErrCodeInvalidCredentials, "неверный email или пароль")
	ErrInvalidAnswer      = New(ErrCodeInvalidAnswer, "неверный ответ")
	ErrInvalidCode        = New(ErrCodeInvalidCode, "неверный код подтверждения")
	ErrCodeExpired        = New(ErrCodeCodeExpired, "срок действия кода истёк")
	ErrNotVerified        = New(ErrCodeNotVerified, "email не подтверждён").WithDetail("needs_verification", true)
	ErrAlreadyVerified    = New(ErrCodeAlreadyVerified, "email уже подтверждён")
	ErrTokenExpired       = New(ErrCodeTokenExpired, "срок действия токена истёк")
	ErrTokenInvalid       = New(ErrCodeTokenInvalid, "токен невалиден")
	ErrResendTooSoon      = New(ErrCodeRateLimited, "новый код можно запросить не чаще раза в минуту")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrMailUnavailable    = New(ErrCodeUnavailable, "не удалось отправить письмо, попробуйте позже")
	ErrInternal           = New(ErrCodeInternal, "внутренняя ошибка сервера")
)
