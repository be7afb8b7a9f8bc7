package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authsystem/internal/authz"
	"authsystem/internal/config"
	"authsystem/internal/handlers"
	"authsystem/internal/models"
	"authsystem/internal/repositories"
	"authsystem/internal/routes"
	"authsystem/internal/services"
)

type testEnv struct {
	router *gin.Engine
	repo   *repositories.MemoryUserRepository
	auth   services.AuthService
}

func newTestEnv(t *testing.T, cookieTokens bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repositories.NewMemoryUserRepository()
	tokens, err := services.NewTokenService("test-secret-key", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	cfg := config.AuthConfig{
		MaxFailedLogins:        5,
		LockoutMinutes:         15,
		ConfirmationTTLMinutes: 30,
		ResetTTLMinutes:        15,
	}
	authService := services.NewAuthService(repo, tokens, nil, cfg)
	userService := services.NewUserService(repo)

	router := gin.New()
	routes.SetupRoutes(router,
		tokens,
		handlers.NewAuthHandler(authService, tokens, cookieTokens),
		handlers.NewUserHandler(userService),
	)
	return &testEnv{router: router, repo: repo, auth: authService}
}

func (e *testEnv) do(method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerConfirmed(t *testing.T, username, email, password string) {
	t.Helper()
	w := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": username, "email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	u, err := e.repo.GetByEmail(email)
	require.NoError(t, err)
	require.NotNil(t, u.ConfirmationToken)
	require.NoError(t, e.auth.ConfirmEmail(email, *u.ConfirmationToken))
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "GoodPass1!",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password_hash")
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	// дубликат
	w = env.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "email": "other@example.com", "password": "GoodPass1!",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// слабый пароль
	w = env.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "alllowercase1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// email без TLD не проходит строгую проверку
	w = env.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "carol", "email": "carol@localhost", "password": "GoodPass1!",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint_GenericUnauthorized(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	wUnknown := env.do(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "nobody", "password": "GoodPass1!",
	}, nil)
	wWrong := env.do(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "alice", "password": "WrongPass1!",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wWrong.Code)
	// тело ответа одинаковое — перебор логинов не даём
	assert.Equal(t, wUnknown.Body.String(), wWrong.Body.String())
}

func TestLoginEndpoint_Unconfirmed(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "GoodPass1!",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "alice", "password": "GoodPass1!",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "not confirmed")
}

func TestLoginAndRefreshEndpoints(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	w := env.do(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "alice@example.com", "password": "GoodPass1!",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Tokens models.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Tokens.RefreshToken)

	w = env.do(http.MethodPost, "/api/auth/refresh", gin.H{
		"refresh_token": loginResp.Tokens.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pair models.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	assert.NotEqual(t, loginResp.Tokens.RefreshToken, pair.RefreshToken)

	// старый refresh мёртв после ротации
	w = env.do(http.MethodPost, "/api/auth/refresh", gin.H{
		"refresh_token": loginResp.Tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint_BadInput(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(http.MethodPost, "/api/auth/refresh", gin.H{"refresh_token": "bogus"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/refresh", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForgotPasswordEndpoint_SameResponseShape(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	wKnown := env.do(http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "alice@example.com"}, nil)
	wUnknown := env.do(http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "nobody@example.com"}, nil)

	assert.Equal(t, http.StatusOK, wKnown.Code)
	assert.Equal(t, http.StatusOK, wUnknown.Code)
	assert.Equal(t, wKnown.Body.String(), wUnknown.Body.String())
}

func TestResetPasswordEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	require.NoError(t, env.auth.ForgotPassword("alice@example.com"))
	u, err := env.repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.ResetToken)

	w := env.do(http.MethodPost, "/api/auth/reset-password", gin.H{
		"token": *u.ResetToken, "new_password": "NewGoodPass1!",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// повторное использование того же токена
	w = env.do(http.MethodPost, "/api/auth/reset-password", gin.H{
		"token": *u.ResetToken, "new_password": "AnotherPass1!",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmEmailEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "GoodPass1!",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	u, err := env.repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	token := *u.ConfirmationToken

	w = env.do(http.MethodGet, "/api/auth/verify-email?email=alice@example.com&token="+token, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// второй раз — пользователь уже подтверждён
	w = env.do(http.MethodGet, "/api/auth/verify-email?email=alice@example.com&token="+token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/auth/verify-email", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	w := env.do(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "alice", "password": "GoodPass1!",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Tokens models.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = env.do(http.MethodGet, "/users/me", nil, map[string]string{
		"Authorization": "Bearer " + loginResp.Tokens.AccessToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	w = env.do(http.MethodGet, "/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserByIDEndpoint_AdminOnly(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	login := func() models.TokenPair {
		w := env.do(http.MethodPost, "/api/auth/login", gin.H{
			"identifier": "alice", "password": "GoodPass1!",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Tokens models.TokenPair `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Tokens
	}

	// обычному пользователю нельзя
	pair := login()
	w := env.do(http.MethodGet, "/users/1", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// админу можно
	u, err := env.repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	u.Role = authz.RoleAdmin
	require.NoError(t, env.repo.Update(u))

	pair = login()
	w = env.do(http.MethodGet, "/users/1", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/users/999", nil, map[string]string{
		"Authorization": "Bearer " + pair.AccessToken,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginEndpoint_CookieMode(t *testing.T) {
	env := newTestEnv(t, true)
	env.registerConfirmed(t, "alice", "alice@example.com", "GoodPass1!")

	w := env.do(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "alice", "password": "GoodPass1!",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// токенов в теле нет, только cookies
	assert.NotContains(t, w.Body.String(), "access_token")

	cookies := w.Result().Cookies()
	var access, refresh *http.Cookie
	for _, ck := range cookies {
		switch ck.Name {
		case "access_token":
			access = ck
		case "refresh_token":
			refresh = ck
		}
	}
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)

	// refresh берёт токен из cookie без тела
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	w2 := httptest.NewRecorder()
	env.router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
}
