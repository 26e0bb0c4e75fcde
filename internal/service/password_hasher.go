package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

// PasswordHasher хеширует пароли и секретные ответы через bcrypt.
// Одновременно выполняется не больше limit операций, остальные ждут слот или отмену ctx.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher создаёт хешер с заданной стоимостью bcrypt и лимитом параллельных операций.
func NewPasswordHasher(cost int, limit int64) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if limit < 1 {
		limit = 1
	}
	// Фиктивный хеш той же стоимости для входа с неизвестным email.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("petway-dummy-password"), cost)
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(limit), dummy: dummy}
}

// Hash возвращает bcrypt-хеш значения.
func (h *PasswordHasher) Hash(ctx context.Context, value string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(value), h.cost)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать значение")
	}
	return string(hash), nil
}

// Compare сверяет значение с хешем. Несовпадение возвращает (false, nil).
func (h *PasswordHasher) Compare(ctx context.Context, hash, value string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(value))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	default:
		return false, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить хеш")
	}
}

// CompareDummy сверяет значение с фиктивным хешем и отбрасывает результат.
// Ответ для несуществующего пользователя занимает столько же времени, сколько для существующего.
func (h *PasswordHasher) CompareDummy(ctx context.Context, value string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(value))
	return nil
}
