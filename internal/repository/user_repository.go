package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
	"github.com/ignatzorin/petway-backend/internal/repository/common"
)

const (
	userPublicColumns = `id, name, email, verified, created_at`
	userSecretColumns = `id, name, email, password_hash, secret_question, secret_answer_hash, verified, created_at`
)

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового неподтверждённого пользователя.
// Дубликат email ловится уникальным индексом, поэтому параллельные регистрации безопасны.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, secret_question, secret_answer_hash, verified)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, verified, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Name, user.Email, user.PasswordHash, user.SecretQuestion, user.SecretAnswerHash,
	).Scan(&user.ID, &user.Verified, &user.CreatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return apperror.ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// FindByEmail возвращает пользователя по email без учёта регистра.
// Хеши и секретный вопрос читаются только при includeSecrets.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, includeSecrets bool) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns(includeSecrets) + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, common.MapNoRows(err, apperror.ErrUserNotFound, "user repository: find by email")
	}
	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID, includeSecrets bool) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns(includeSecrets) + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, common.MapNoRows(err, apperror.ErrUserNotFound, "user repository: get by id")
	}
	return &user, nil
}

// UpdatePassword заменяет хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}
	return common.EnsureAffected(res, apperror.ErrUserNotFound, "user repository: update password")
}

// UpdateCredentials одним запросом меняет хеш пароля и секретный вопрос с хешем ответа.
// Пустое значение оставляет колонку без изменений.
func (r *UserRepository) UpdateCredentials(ctx context.Context, id uuid.UUID, passwordHash, question, answerHash string) error {
	query := `UPDATE users SET
			password_hash = COALESCE(NULLIF($1, ''), password_hash),
			secret_question = COALESCE(NULLIF($2, ''), secret_question),
			secret_answer_hash = COALESCE(NULLIF($3, ''), secret_answer_hash)
		WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, passwordHash, question, answerHash, id)
	if err != nil {
		return fmt.Errorf("user repository: update credentials %w", err)
	}
	return common.EnsureAffected(res, apperror.ErrUserNotFound, "user repository: update credentials")
}

// MarkVerified выставляет verified = true для владельца email.
func (r *UserRepository) MarkVerified(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET verified = TRUE WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return fmt.Errorf("user repository: mark verified %w", err)
	}
	return common.EnsureAffected(res, apperror.ErrUserNotFound, "user repository: mark verified")
}

func userColumns(includeSecrets bool) string {
	if includeSecrets {
		return userSecretColumns
	}
	return userPublicColumns
}
