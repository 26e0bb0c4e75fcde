package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/models"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// VerificationRepository описывает хранилище кодов подтверждения.
type VerificationRepository interface {
	Create(ctx context.Context, vc *models.VerificationCode, cooldownSince time.Time) error
	Consume(ctx context.Context, email, code string, now time.Time) (*models.VerificationCode, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// VerificationService выдаёт и гасит одноразовые коды подтверждения email.
type VerificationService struct {
	repo     VerificationRepository
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
}

func NewVerificationService(repo VerificationRepository, ttl, cooldown time.Duration) *VerificationService {
	return &VerificationService{repo: repo, ttl: ttl, cooldown: cooldown, now: time.Now}
}

// IssueCode создаёт новый код для email.
// Если предыдущий код выдан меньше cooldown назад, возвращает ErrResendTooSoon.
func (s *VerificationService) IssueCode(ctx context.Context, email string) (*models.VerificationCode, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, vc, now.Add(-s.cooldown)); err != nil {
		return nil, err
	}
	return vc, nil
}

// Consume гасит код. Ошибки: ErrInvalidCode, ErrCodeExpired.
func (s *VerificationService) Consume(ctx context.Context, email, code string) error {
	_, err := s.repo.Consume(ctx, email, code, s.now().UTC())
	return err
}

// Sweep удаляет истёкшие коды.
func (s *VerificationService) Sweep(ctx context.Context) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		logger.Log.WithError(err).Error("verification: не удалось удалить истёкшие коды")
		return
	}
	if n > 0 {
		logger.Log.WithFields(logrus.Fields{"deleted": n}).Debug("verification: удалены истёкшие коды")
	}
}

// generateCode возвращает равномерно распределённый код из [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("verification: генерация кода: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
