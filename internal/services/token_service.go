package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authsystem/internal/models"
	"authsystem/internal/utils"
)

const refreshTokenBytes = 64

// Claims — полезная нагрузка access-токена.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type TokenService interface {
	NewAccessToken(user *models.User) (string, error)
	// NewRefreshToken — opaque bearer-значение; смысл ему придаёт только
	// строка в users, которая его сейчас хранит.
	NewRefreshToken() (string, error)
	ParseAccessToken(tokenString string) (*Claims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type tokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService отказывает сразу, если секрет пуст: подписывать пустым
// ключом нельзя ни при каких обстоятельствах.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrConfigurationMissing
	}
	return &tokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (s *tokenService) NewAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) NewRefreshToken() (string, error) {
	return utils.NewSecureToken(refreshTokenBytes)
}

func (s *tokenService) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *tokenService) AccessTokenTTL() time.Duration  { return s.accessTTL }
func (s *tokenService) RefreshTokenTTL() time.Duration { return s.refreshTTL }
