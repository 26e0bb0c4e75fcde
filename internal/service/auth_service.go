package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/mailer"
	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
	"github.com/ignatzorin/petway-backend/internal/validation"
)

// UserRepository описывает зависимости AuthService от хранилища пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string, includeSecrets bool) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID, includeSecrets bool) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateCredentials(ctx context.Context, id uuid.UUID, passwordHash, question, answerHash string) error
	MarkVerified(ctx context.Context, email string) error
}

// Notifier доставляет коды подтверждения.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, code string, expiresAt time.Time) mailer.Result
}

// AuthService инкапсулирует регистрацию, подтверждение email, вход и восстановление пароля.
type AuthService struct {
	users    UserRepository
	codes    *VerificationService
	notifier Notifier
	hasher   *PasswordHasher
	tokens   *TokenManager
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	SecretQuestion string
	SecretAnswer   string
}

// RegisterResult - созданный пользователь и статус отправки кода.
type RegisterResult struct {
	User     *models.User
	Delivery mailer.Status
}

// LoginResult возвращается после успешного входа.
type LoginResult struct {
	Token string
	User  *models.User
}

// ChangePasswordInput - смена пароля и/или секретного вопроса. Пустые поля не меняются.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	SecretQuestion  string
	SecretAnswer    string
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserRepository, codes *VerificationService, notifier Notifier, hasher *PasswordHasher, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:    users,
		codes:    codes,
		notifier: notifier,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Register создаёт неподтверждённого пользователя и отправляет код.
// Ошибка выдачи или отправки кода не откатывает регистрацию: Delivery будет deferred.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := validation.SanitizeText(in.Name)
	email := validation.NormalizeEmail(in.Email)
	question := validation.SanitizeText(in.SecretQuestion)
	answer := validation.NormalizeAnswer(in.SecretAnswer)

	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateSecretQA(question, answer); err != nil {
		return nil, err
	}

	passHash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}
	answerHash, err := s.hasher.Hash(ctx, answer)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:             name,
		Email:            email,
		PasswordHash:     passHash,
		SecretQuestion:   question,
		SecretAnswerHash: answerHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID}).Info("auth: пользователь зарегистрирован")

	return &RegisterResult{User: user, Delivery: s.sendCode(ctx, email)}, nil
}

// VerifyEmail гасит код и помечает email подтверждённым.
// Повторный вызов с тем же кодом вернёт ErrInvalidCode.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = validation.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if err := validation.ValidateVerificationCode(code); err != nil {
		return err
	}

	if err := s.codes.Consume(ctx, email, code); err != nil {
		return err
	}
	return s.users.MarkVerified(ctx, email)
}

// ResendCode выдаёт новый код неподтверждённому пользователю.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email, false)
	if err != nil {
		return err
	}
	if user.Verified {
		return apperror.ErrAlreadyVerified
	}

	vc, err := s.codes.IssueCode(ctx, email)
	if err != nil {
		return err
	}
	if res := s.notifier.SendVerificationCode(ctx, email, vc.Code, vc.ExpiresAt); !res.Sent() {
		return apperror.Wrap(res.Err, apperror.ErrCodeUnavailable, apperror.ErrMailUnavailable.Message)
	}
	return nil
}

// Login проверяет учётные данные и выпускает токен сессии.
// Подтверждение email проверяется до пароля.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email и пароль обязательны")
	}

	user, err := s.users.FindByEmail(ctx, email, true)
	if err != nil {
		if apperror.IsNotFound(err) {
			if err := s.hasher.CompareDummy(ctx, password); err != nil {
				return nil, err
			}
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Verified {
		return nil, apperror.ErrNotVerified
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: publicUser(user)}, nil
}

// RequestSecretQuestion возвращает секретный вопрос пользователя.
func (s *AuthService) RequestSecretQuestion(ctx context.Context, email string) (string, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, email, true)
	if err != nil {
		return "", err
	}
	return user.SecretQuestion, nil
}

// VerifySecretAnswer сверяет ответ без учёта регистра и пробелов и выпускает токен сброса.
func (s *AuthService) VerifySecretAnswer(ctx context.Context, email, answer string) (string, error) {
	email = validation.NormalizeEmail(email)
	answer = validation.NormalizeAnswer(answer)
	if err := validation.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := validation.ValidateRequired("секретный ответ", answer); err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, email, true)
	if err != nil {
		return "", err
	}

	ok, err := s.hasher.Compare(ctx, user.SecretAnswerHash, answer)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperror.ErrInvalidAnswer
	}

	return s.tokens.IssueResetToken(user.ID)
}

// ResetPassword меняет пароль по токену сброса. Токен сессии не принимается.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return apperror.ErrTokenInvalid
	}
	claims, err := s.tokens.Verify(resetToken)
	if err != nil {
		return err
	}
	if !claims.IsReset() {
		return apperror.ErrTokenInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID}).Info("auth: пароль сброшен")
	return nil
}

// ChangePassword меняет пароль и/или секретный вопрос после проверки текущего пароля.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if in.CurrentPassword == "" {
		return apperror.Validation("текущий пароль обязателен")
	}

	question := validation.SanitizeText(in.SecretQuestion)
	answer := validation.NormalizeAnswer(in.SecretAnswer)
	changeQA := question != "" || answer != ""

	if in.NewPassword == "" && !changeQA {
		return apperror.Validation("укажите новый пароль или новый секретный вопрос и ответ")
	}
	if in.NewPassword != "" {
		if err := validation.ValidatePassword(in.NewPassword); err != nil {
			return err
		}
	}
	if changeQA {
		if err := validation.ValidateSecretQA(question, answer); err != nil {
			return err
		}
	}

	user, err := s.users.GetByID(ctx, userID, true)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Compare(ctx, user.PasswordHash, in.CurrentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrInvalidCredentials
	}

	// Все хеши считаются заранее, запись одним запросом.
	var passHash, answerHash string
	if in.NewPassword != "" {
		if passHash, err = s.hasher.Hash(ctx, in.NewPassword); err != nil {
			return err
		}
	}
	if changeQA {
		if answerHash, err = s.hasher.Hash(ctx, answer); err != nil {
			return err
		}
	}
	return s.users.UpdateCredentials(ctx, userID, passHash, question, answerHash)
}

// Authenticate проверяет токен сессии и возвращает id пользователя.
// Токены с любым type (например, сброса пароля) сессией не считаются.
func (s *AuthService) Authenticate(token string) (uuid.UUID, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Type != "" {
		return uuid.Nil, apperror.ErrTokenInvalid
	}
	return claims.UserID()
}

// GetUser возвращает пользователя без секретных полей.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id, false)
}

// SessionTTL - время жизни токена сессии, нужно для cookie.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.SessionTTL()
}

func (s *AuthService) sendCode(ctx context.Context, email string) mailer.Status {
	vc, err := s.codes.IssueCode(ctx, email)
	if err != nil {
		if !errors.Is(err, apperror.ErrResendTooSoon) {
			logger.Log.WithError(err).Warn("auth: не удалось выдать код подтверждения")
		}
		return mailer.StatusDeferred
	}
	return s.notifier.SendVerificationCode(ctx, email, vc.Code, vc.ExpiresAt).Status
}

func publicUser(u *models.User) *models.User {
	return &models.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}
