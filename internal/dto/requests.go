package dto

// RegisterRequest represents the request to create an account
type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	SecretQuestion string `json:"secretQuestion"`
	SecretAnswer   string `json:"secretAnswer"`
}

// LoginRequest represents the request to open a session
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest represents the request to confirm an email with a code
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// EmailRequest carries only an email (resend-code, secret-question)
type EmailRequest struct {
	Email string `json:"email"`
}

// SecretAnswerRequest represents the request to check the secret answer
type SecretAnswerRequest struct {
	Email  string `json:"email"`
	Answer string `json:"answer"`
}

// ResetPasswordRequest represents the request to set a new password with a reset token
type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest represents the request to change password and/or secret question
type ChangePasswordRequest struct {
	CurrentPassword  string `json:"currentPassword"`
	NewPassword      string `json:"newPassword"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
}

// PetForm is bound from multipart form or JSON body.
// Nil fields are treated as "not provided".
type PetForm struct {
	Name          *string  `form:"name" json:"name"`
	Kind          *string  `form:"kind" json:"kind"`
	Breed         *string  `form:"breed" json:"breed"`
	Age           *string  `form:"age" json:"age"`
	Description   *string  `form:"description" json:"description"`
	City          *string  `form:"city" json:"city"`
	Phone         *string  `form:"phone" json:"phone"`
	Status        *string  `form:"status" json:"status"`
	Lng           *float64 `form:"lng" json:"lng"`
	Lat           *float64 `form:"lat" json:"lat"`
	ClearLocation bool     `form:"clear_location" json:"clear_location"`
}

// UpdatePetStatusRequest represents the request to change listing status
type UpdatePetStatusRequest struct {
	Status string `json:"status"`
}
