package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/petway-backend/internal/models"
)

// MessageResponse is a plain confirmation
type MessageResponse struct {
	Msg string `json:"msg"`
}

// RegisterResponse reports whether the verification code was delivered
type RegisterResponse struct {
	Msg          string `json:"msg"`
	Verification string `json:"verification"`
}

// LoginResponse carries the session token and the public user
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SecretQuestionResponse returns the stored secret question
type SecretQuestionResponse struct {
	SecretQuestion string `json:"secretQuestion"`
}

// ResetTokenResponse returns a short-lived reset token
type ResetTokenResponse struct {
	Msg        string `json:"msg"`
	ResetToken string `json:"resetToken"`
}

// PetResponse is a pet with the viewer's ownership flag
type PetResponse struct {
	*models.Pet
	IsOwner bool `json:"is_owner"`
}

// PetStatusResponse is returned after a status change
type PetStatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// HealthResponse represents the health check result
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
	FeedClients int               `json:"feed_clients"`
}
