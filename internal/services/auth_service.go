package services

import (
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"

	"authsystem/internal/authz"
	"authsystem/internal/config"
	"authsystem/internal/models"
	"authsystem/internal/repositories"
	"authsystem/internal/utils"
)

const singleUseTokenBytes = 64

type AuthService interface {
	Register(req *models.RegisterRequest) (*models.User, error)
	// Login принимает username или email. Возвращает пару токенов и
	// пользователя для ответа хендлера.
	Login(identifier, password string) (*models.TokenPair, *models.User, error)
	RefreshToken(refreshToken string) (*models.TokenPair, error)
	// ForgotPassword всегда отвечает успехом — существование адреса не раскрываем.
	ForgotPassword(email string) error
	ResetPassword(token, newPassword string) error
	ConfirmEmail(email, confirmationToken string) error
}

type authService struct {
	users  repositories.UserRepository
	tokens TokenService
	emails EmailService // может быть nil — письма тогда просто не уходят
	cfg    config.AuthConfig
}

func NewAuthService(users repositories.UserRepository, tokens TokenService, emails EmailService, cfg config.AuthConfig) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		emails: emails,
		cfg:    cfg,
	}
}

func (s *authService) Register(req *models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if !isPasswordStrong(req.Password) {
		return nil, ErrWeakPassword
	}

	// check-then-insert; гонку закрывают уникальные индексы в Create
	exists, err := s.users.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateIdentity
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	confirmationToken, err := utils.NewSecureToken(singleUseTokenBytes)
	if err != nil {
		return nil, err
	}
	confirmationExpires := time.Now().Add(s.cfg.ConfirmationTTL())

	user := &models.User{
		Username:              username,
		Email:                 email,
		PasswordHash:          hash,
		Role:                  authz.DefaultRole,
		IsEmailConfirmed:      false,
		ConfirmationToken:     &confirmationToken,
		ConfirmationExpiresAt: &confirmationExpires,
	}

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}

	s.notify("confirmation", user.Email, func() error {
		return s.emails.SendEmailConfirmation(user.Email, confirmationToken)
	})

	return user, nil
}

func (s *authService) Login(identifier, password string) (*models.TokenPair, *models.User, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.users.GetByUsernameOrEmail(identifier)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		// тот же ответ, что и на неверный пароль
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsEmailConfirmed {
		return nil, nil, ErrEmailNotConfirmed
	}

	if user.LockoutUntil != nil && user.LockoutUntil.After(time.Now()) {
		return nil, nil, &AccountLockedError{Until: *user.LockoutUntil}
	}

	if !CheckPassword(password, user.PasswordHash) {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= s.cfg.MaxFailedLogins {
			until := time.Now().Add(s.cfg.LockoutDuration())
			user.LockoutUntil = &until
		}
		// счётчик должен сохраниться, хотя логин и не удался
		if err := s.users.Update(user); err != nil {
			log.Printf("[auth][login] persist failed attempts for userID=%d: %v", user.ID, err)
		}
		return nil, nil, ErrInvalidCredentials
	}

	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authService) RefreshToken(refreshToken string) (*models.TokenPair, error) {
	user, err := s.users.GetByRefreshToken(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshExpiresAt == nil || user.RefreshExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidToken
	}
	// ротация: старое значение перезаписывается и больше нигде не валидно
	return s.issueTokenPair(user)
}

func (s *authService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		// не раскрываем, существует ли адрес
		log.Printf("[auth][forgot-password] no user for requested email, responding with generic success")
		return nil
	}

	token, err := utils.NewSecureToken(singleUseTokenBytes)
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.cfg.ResetTTL())
	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expires

	if err := s.users.Update(user); err != nil {
		return err
	}

	s.notify("password-reset", user.Email, func() error {
		return s.emails.SendPasswordResetEmail(user.Email, token)
	})
	return nil
}

func (s *authService) ResetPassword(token, newPassword string) error {
	user, err := s.users.GetByResetToken(strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if user == nil || user.ResetTokenExpiresAt == nil || user.ResetTokenExpiresAt.Before(time.Now()) {
		return ErrInvalidToken
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	// single-use: оба поля чистим вместе
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil

	return s.users.Update(user)
}

func (s *authService) ConfirmEmail(email, confirmationToken string) error {
	user, err := s.users.GetByEmail(strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}
	if user == nil || user.IsEmailConfirmed || user.ConfirmationToken == nil {
		// повторное подтверждение — отказ, не идемпотентный успех
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(*user.ConfirmationToken), []byte(confirmationToken)) != 1 {
		return ErrInvalidToken
	}
	if user.ConfirmationExpiresAt == nil || user.ConfirmationExpiresAt.Before(time.Now()) {
		return ErrInvalidToken
	}

	user.IsEmailConfirmed = true
	user.ConfirmationToken = nil
	user.ConfirmationExpiresAt = nil

	return s.users.Update(user)
}

// issueTokenPair выпускает access-токен и новый refresh, перезаписывая
// прежний (одна активная сессия на пользователя).
func (s *authService) issueTokenPair(user *models.User) (*models.TokenPair, error) {
	access, err := s.tokens.NewAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(s.tokens.RefreshTokenTTL())
	user.RefreshToken = &refresh
	user.RefreshIssuedAt = &now
	user.RefreshExpiresAt = &expires

	if err := s.users.Update(user); err != nil {
		return nil, err
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// notify отправляет письмо в фоне; сбой доставки логируется и никогда не
// валит вызвавшую операцию.
func (s *authService) notify(kind, toEmail string, send func() error) {
	if s.emails == nil {
		log.Printf("[auth][email] %s to %s skipped: notifier not configured", kind, toEmail)
		return
	}
	go func() {
		if err := send(); err != nil {
			log.Printf("[auth][email] %s to %s failed: %v", kind, toEmail, err)
		}
	}()
}
