package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"authsystem/internal/models"
	"authsystem/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	tokens      services.TokenService
	// cookie-доставка токенов — опция границы, движка не касается
	cookieTokens bool
}

func NewAuthHandler(authService services.AuthService, tokens services.TokenService, cookieTokens bool) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, cookieTokens: cookieTokens}
}

// @Summary      Register a new user
// @Description  Creates an account and sends an email confirmation link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "Registration data"
// @Success      201       {object}  models.User
// @Failure      400       {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isStrictEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password does not meet strength requirements"})
		case errors.Is(err, services.ErrDuplicateIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
		default:
			log.Printf("[auth][register] service error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		}
		return
	}

	// хэш наружу не уходит (json:"-"), но на всякий случай
	user.PasswordHash = ""
	c.JSON(http.StatusCreated, user)
}

// @Summary      Log in
// @Description  Authenticates by username or email and returns a token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, user, err := h.authService.Login(req.Identifier, req.Password)
	if err != nil {
		var locked *services.AccountLockedError
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		case errors.Is(err, services.ErrEmailNotConfirmed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email is not confirmed. Please verify your email before logging in."})
		case errors.As(err, &locked):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":     "Account is locked",
				"unlock_at": locked.Until.UTC(),
			})
		default:
			log.Printf("[auth][login] service error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	if h.cookieTokens {
		h.setTokenCookies(c, pair)
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": user})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  pair,
	})
}

// @Summary      Refresh tokens
// @Description  Rotates the refresh token and issues a new access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.TokenPair
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// cookie имеет приоритет, тело — запасной вариант
	refreshToken, _ := c.Cookie("refresh_token")
	if refreshToken == "" {
		var req models.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token is required"})
			return
		}
		refreshToken = req.RefreshToken
	}

	pair, err := h.authService.RefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
			return
		}
		log.Printf("[auth][refresh] service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		return
	}

	if h.cookieTokens {
		h.setTokenCookies(c, pair)
		c.JSON(http.StatusOK, gin.H{"message": "Token refreshed"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// @Summary      Request a password reset
// @Description  Always responds with generic success, whether or not the email exists
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        forgot  body      models.ForgotPasswordRequest  true  "Email"
// @Success      200     {object}  map[string]string
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		log.Printf("[auth][forgot-password] service error: %v", err)
		// ответ одинаковый в любом случае — перебор адресов не даём
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a password reset link has been sent"})
}

// @Summary      Reset password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        reset  body      models.ResetPasswordRequest  true  "Reset token and new password"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
			return
		}
		log.Printf("[auth][reset-password] service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// @Summary      Confirm email address
// @Tags         Auth
// @Produce      json
// @Param        email  query     string  true  "Email address"
// @Param        token  query     string  true  "Confirmation token"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Router       /api/auth/verify-email [get]
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	email := c.Query("email")
	token := c.Query("token")
	if email == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and token are required"})
		return
	}

	if err := h.authService.ConfirmEmail(email, token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid, expired or already used confirmation token"})
			return
		}
		log.Printf("[auth][verify-email] service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email confirmed"})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair *models.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("access_token", pair.AccessToken,
		int(h.tokens.AccessTokenTTL().Seconds()), "/", "", true, true)
	c.SetCookie("refresh_token", pair.RefreshToken,
		int(h.tokens.RefreshTokenTTL().Seconds()), "/", "", true, true)
}
