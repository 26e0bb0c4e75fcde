package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode - одноразовый код подтверждения email.
type VerificationCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Code      string    `db:"code" json:"-"`
	Used      bool      `db:"used" json:"used"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsExpired проверяет срок действия кода на момент now.
func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !v.ExpiresAt.After(now)
}
