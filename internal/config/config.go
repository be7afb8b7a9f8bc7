package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`

	AccessTokenTTLMinutes  int `yaml:"access_token_ttl_minutes"`
	RefreshTokenTTLDays    int `yaml:"refresh_token_ttl_days"`
	MaxFailedLogins        int `yaml:"max_failed_logins"`
	LockoutMinutes         int `yaml:"lockout_minutes"`
	ConfirmationTTLMinutes int `yaml:"confirmation_ttl_minutes"`
	ResetTTLMinutes        int `yaml:"reset_ttl_minutes"`

	// выдача токенов в HttpOnly-cookies вместо тела ответа
	CookieTokens bool `yaml:"cookie_tokens" env:"AUTH_COOKIE_TOKENS"`
}

func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

func (a AuthConfig) LockoutDuration() time.Duration {
	return time.Duration(a.LockoutMinutes) * time.Minute
}

func (a AuthConfig) ConfirmationTTL() time.Duration {
	return time.Duration(a.ConfirmationTTLMinutes) * time.Minute
}

func (a AuthConfig) ResetTTL() time.Duration {
	return time.Duration(a.ResetTTLMinutes) * time.Minute
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUser     string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	FromEmail    string `yaml:"from_email"`
	// базовый адрес для ссылок в письмах (confirm / reset)
	BaseURL string `yaml:"base_url"`
}

// Configured — без хоста отправка не настроена; регистрация при этом
// всё равно должна проходить, письмо просто не уходит.
func (e EmailConfig) Configured() bool {
	return e.SMTPHost != "" && e.SMTPPort != 0
}

type Config struct {
	Server struct {
		Port    int  `yaml:"port" env:"SERVER_PORT"`
		DevMode bool `yaml:"dev_mode" env:"DEV_MODE"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`
	Auth  AuthConfig  `yaml:"auth"`
	Email EmailConfig `yaml:"email"`
}

// LoadConfig читает yaml-файл и накатывает поверх переменные окружения
// (секреты обычно приходят именно оттуда).
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.AccessTokenTTLMinutes == 0 {
		cfg.Auth.AccessTokenTTLMinutes = 15
	}
	if cfg.Auth.RefreshTokenTTLDays == 0 {
		cfg.Auth.RefreshTokenTTLDays = 7
	}
	if cfg.Auth.MaxFailedLogins == 0 {
		cfg.Auth.MaxFailedLogins = 5
	}
	if cfg.Auth.LockoutMinutes == 0 {
		cfg.Auth.LockoutMinutes = 15
	}
	if cfg.Auth.ConfirmationTTLMinutes == 0 {
		cfg.Auth.ConfirmationTTLMinutes = 30
	}
	if cfg.Auth.ResetTTLMinutes == 0 {
		cfg.Auth.ResetTTLMinutes = 15
	}
	if cfg.Email.BaseURL == "" {
		cfg.Email.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
}
