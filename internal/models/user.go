package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает владельца аккаунта.
// Хеши пароля и секретного ответа никогда не сериализуются в JSON.
type User struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	SecretQuestion   string    `db:"secret_question" json:"-"`
	SecretAnswerHash string    `db:"secret_answer_hash" json:"-"`
	Verified         bool      `db:"verified" json:"verified"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

