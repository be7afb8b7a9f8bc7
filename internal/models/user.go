package models

import "time"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу
	Role         string `json:"role"`

	// refresh-хранение в БД: одна актуальная сессия на пользователя
	RefreshToken     *string    `json:"-"`
	RefreshIssuedAt  *time.Time `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`

	// lockout
	FailedLoginAttempts int        `json:"-"`
	LockoutUntil        *time.Time `json:"-"`

	// password reset (single-use)
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	// email verification (single-use)
	IsEmailConfirmed      bool       `json:"is_email_confirmed"`
	ConfirmationToken     *string    `json:"-"`
	ConfirmationExpiresAt *time.Time `json:"-"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	// username ИЛИ email — матчим по обоим
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
