package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

// VerificationRepository хранит одноразовые коды подтверждения email.
type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create сохраняет код, если для email не выдавали код позже cooldownSince.
// Проверка и вставка идут в одной транзакции под advisory-локом на email,
// поэтому параллельные запросы для одного адреса выполняются по очереди.
func (r *VerificationRepository) Create(ctx context.Context, vc *models.VerificationCode, cooldownSince time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("verification repository: begin %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, vc.Email); err != nil {
		return fmt.Errorf("verification repository: lock %w", err)
	}

	query := `
		INSERT INTO email_verifications (email, code, expires_at, created_at)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (
			SELECT 1 FROM email_verifications WHERE email = $1 AND created_at > $5
		)
		RETURNING id, used
	`
	err = tx.QueryRowxContext(ctx, query, vc.Email, vc.Code, vc.ExpiresAt, vc.CreatedAt, cooldownSince).
		Scan(&vc.ID, &vc.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrResendTooSoon
	}
	if err != nil {
		return fmt.Errorf("verification repository: create %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("verification repository: commit %w", err)
	}
	return nil
}

// Consume атомарно помечает использованным самый свежий неиспользованный код для email.
// Из параллельных вызовов с одним кодом успешен только один.
func (r *VerificationRepository) Consume(ctx context.Context, email, code string, now time.Time) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.GetContext(ctx, &vc, `
		UPDATE email_verifications SET used = TRUE
		WHERE id = (
			SELECT id FROM email_verifications
			WHERE email = $1 AND code = $2 AND used = FALSE
			ORDER BY created_at DESC LIMIT 1
		) AND used = FALSE AND expires_at > $3
		RETURNING id, email, code, used, expires_at, created_at
	`, email, code, now)
	if err == nil {
		return &vc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verification repository: consume %w", err)
	}

	// Обновления не было: различаем истёкший код и неверный.
	var expiresAt time.Time
	err = r.db.QueryRowxContext(ctx, `
		SELECT expires_at FROM email_verifications
		WHERE email = $1 AND code = $2 AND used = FALSE
		ORDER BY created_at DESC LIMIT 1
	`, email, code).Scan(&expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperror.ErrInvalidCode
	case err != nil:
		return nil, fmt.Errorf("verification repository: lookup %w", err)
	case !expiresAt.After(now):
		return nil, apperror.ErrCodeExpired
	default:
		// Код успели погасить параллельным запросом.
		return nil, apperror.ErrInvalidCode
	}
}

// DeleteExpired удаляет коды с истёкшим сроком и возвращает их количество.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_verifications WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("verification repository: delete expired %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("verification repository: delete expired %w", err)
	}
	return n, nil
}
