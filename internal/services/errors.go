package services

import (
	"errors"
	"fmt"
	"time"
)

// Бизнес-ошибки движка аутентификации. Хендлеры маппят их на HTTP-статусы,
// наружу никакие другие детали не уходят.
var (
	// ErrInvalidCredentials — одинаково для "нет такого пользователя" и
	// "неверный пароль", чтобы нельзя было перебирать логины.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailNotConfirmed  = errors.New("email is not confirmed")
	ErrDuplicateIdentity  = errors.New("username or email already exists")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	// ErrInvalidToken покрывает протухшие и несовпавшие refresh/reset/confirmation токены.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrConfigurationMissing — отсутствует секрет подписи; фатально на старте.
	ErrConfigurationMissing = errors.New("jwt signing secret is not configured")
)

// AccountLockedError несёт время разблокировки.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked, try again at %s UTC", e.Until.UTC().Format("15:04"))
}
