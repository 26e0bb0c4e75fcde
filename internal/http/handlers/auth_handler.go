package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/petway-backend/internal/dto"
	"github.com/ignatzorin/petway-backend/internal/http/middleware"
	"github.com/ignatzorin/petway-backend/internal/mailer"
	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/service"
)

// AuthService - операции аутентификации, которые нужны HTTP слою.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	RequestSecretQuestion(ctx context.Context, email string) (string, error)
	VerifySecretAnswer(ctx context.Context, email, answer string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, in service.ChangePasswordInput) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SessionTTL() time.Duration
}

// AuthHandler предоставляет HTTP слой для регистрации, входа и восстановления доступа.
type AuthHandler struct {
	auth          AuthService
	secureCookies bool
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookies: secureCookies}
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		SecretQuestion: req.SecretQuestion,
		SecretAnswer:   req.SecretAnswer,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	msg := "регистрация успешна, код подтверждения отправлен на email"
	if result.Delivery != mailer.StatusSent {
		msg = "регистрация успешна, но письмо не отправлено. Запросите код повторно"
	}
	c.JSON(http.StatusCreated, dto.RegisterResponse{Msg: msg, Verification: string(result.Delivery)})
}

// Login обрабатывает POST /auth/login. Токен возвращается в теле и в HttpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setSessionCookie(c, result.Token, int(h.auth.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, dto.LoginResponse{Token: result.Token, User: result.User})
}

// Logout обрабатывает POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, dto.MessageResponse{Msg: "сессия завершена"})
}

// VerifyEmail обрабатывает POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Msg: "email подтверждён"})
}

// ResendCode обрабатывает POST /auth/resend-code.
func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResendCode(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Msg: "новый код отправлен на email"})
}

// SecretQuestion обрабатывает POST /auth/secret-question.
func (h *AuthHandler) SecretQuestion(c *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.auth.RequestSecretQuestion(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SecretQuestionResponse{SecretQuestion: question})
}

// VerifySecretAnswer обрабатывает POST /auth/verify-secret-answer.
func (h *AuthHandler) VerifySecretAnswer(c *gin.Context) {
	var req dto.SecretAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.auth.VerifySecretAnswer(c.Request.Context(), req.Email, req.Answer)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ResetTokenResponse{Msg: "ответ верный", ResetToken: token})
}

// ResetPassword обрабатывает POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Msg: "пароль обновлён"})
}

// ChangePassword обрабатывает POST /auth/change-password (нужна сессия).
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), userID, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		SecretQuestion:  req.SecurityQuestion,
		SecretAnswer:    req.SecurityAnswer,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Msg: "данные обновлены"})
}

// Me обрабатывает GET /users/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, value, maxAge, "/", "", h.secureCookies, true)
}
