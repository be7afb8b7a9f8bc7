package services

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"

	"authsystem/internal/config"
)

// EmailService — по методу на тип уведомления; движок зависит только от
// интерфейса, транспорт его не касается.
type EmailService interface {
	SendEmailConfirmation(toEmail, token string) error
	SendPasswordResetEmail(toEmail, token string) error
}

type emailService struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

func NewEmailService(cfg config.EmailConfig) EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return &emailService{
		dialer:  dialer,
		from:    cfg.FromEmail,
		baseURL: cfg.BaseURL,
	}
}

func (s *emailService) SendEmailConfirmation(toEmail, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s&email=%s",
		s.baseURL, url.QueryEscape(token), url.QueryEscape(toEmail))

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Email Confirmation")

	body := fmt.Sprintf(`
		<p>Please confirm your email by clicking the link below:</p>
		<a href="%s">Confirm Email</a>
	`, link)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(toEmail, token string) error {
	link := fmt.Sprintf("%s/api/auth/reset-password?token=%s",
		s.baseURL, url.QueryEscape(token))

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Password Reset Request")

	body := fmt.Sprintf(`
		<p>We received a password reset request for your account.</p>
		<p>Please click the following link to reset your password:</p>
		<a href="%s">Reset Password</a>
		<p>If you did not request a password reset, no further action is required.</p>
	`, link)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
